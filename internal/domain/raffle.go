package domain

// Raffle is one configured prize offering. Raffles are supplied by
// configuration and never mutated at runtime; amounts are wei.
type Raffle struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	TicketPriceWei int64  `json:"ticket_price_wei"`
	PrizeWei       int64  `json:"prize_wei"`
	Capacity       int    `json:"capacity"`
}

// IsFree reports whether the raffle is a free raffle (zero ticket price).
// Free raffles allow a single entry per wallet per round.
func (r Raffle) IsFree() bool {
	return r.TicketPriceWei == 0
}

// Catalog is the set of configured raffles, keyed by raffle id.
type Catalog struct {
	raffles map[string]Raffle
	order   []string
}

func NewCatalog(raffles []Raffle) *Catalog {
	c := &Catalog{
		raffles: make(map[string]Raffle, len(raffles)),
	}
	for _, r := range raffles {
		if _, ok := c.raffles[r.ID]; ok {
			continue
		}
		c.raffles[r.ID] = r
		c.order = append(c.order, r.ID)
	}
	return c
}

func (c *Catalog) Get(raffleID string) (Raffle, bool) {
	r, ok := c.raffles[raffleID]
	return r, ok
}

func (c *Catalog) All() []Raffle {
	out := make([]Raffle, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.raffles[id])
	}
	return out
}
