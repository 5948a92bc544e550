package main

import (
	_ "github.com/joho/godotenv/autoload" // Autoload .env file.

	"github.com/lottagg/raffle-api/cmd/app"
)

// @title           lotta.gg raffle API
// @description     Back end for the lotta.gg crypto raffle platform: 24-hour
// @description     raffle rounds, wallet ticket purchases and a commit-reveal
// @description     provably fair winner draw.
//
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Bearer token
func main() {
	if err := app.Start(); err != nil {
		panic(err)
	}
}
