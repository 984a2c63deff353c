package main

import (
	"log"
	"net/http"

	"PeopleFlow-backend/internal/server"
)

func main() {
	srv := server.NewServer()

	log.Printf("API started on %s", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
}
