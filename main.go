package main

import "hooshmetr/internal/app"

// @title           Hooshmetr API
// @version         1.0
// @description     Backend for the Hooshmetr AI-tool directory. Authentication is mobile-OTP based and issues JWT bearer tokens.
// @BasePath        /api

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	app.Run()
}
