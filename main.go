/*
Copyright © 2026 Khalid-Galal
*/
package main

import (
	"log"

	"github.com/joho/godotenv"

	"github.com/Khalid-Galal/bidops-ai/cmd"
)

func main() {
	cmd.Execute()
}

func init() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file loaded:", err)
	}
}
