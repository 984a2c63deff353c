package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	// Load env file into environments.
	_ "github.com/joho/godotenv/autoload"

	"PeopleFlow-backend/internal/controller/file"
	"PeopleFlow-backend/internal/database"
	"PeopleFlow-backend/internal/model"
	"PeopleFlow-backend/internal/payment"
	"PeopleFlow-backend/internal/payroll"
)

// MyServer contain port which server are running on and database instance
type MyServer struct {
	port int

	DB      *database.DBinstanceStruct
	Storage file.StorageClient
}

// NewServer construct new Server instance
func NewServer() *http.Server {
	port, _ := strconv.Atoi(os.Getenv("PORT"))

	db, err := database.GetMainDB()
	if err != nil {
		log.Fatalf("Database failed to initialize: %s", err)
	}

	storage, err := file.NewCloudStorageClientFromEnv()
	if err != nil {
		log.Fatalf("Cloud storage failed to initialize: %s", err)
	}

	myServer := &MyServer{
		port: port,
		DB:   db,
	}
	if storage != nil {
		myServer.Storage = storage
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      myServer.RegisterRoutes(paymentProcessor()),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return server
}

// paymentProcessor wires the disbursement gateway when configured. Without a
// gateway every settlement attempt is reported as failed instead of crashing
// the server.
func paymentProcessor() payroll.PaymentProcessor {
	gateway, err := payment.NewGatewayClientFromEnv()
	if err != nil {
		log.Printf("Payment gateway disabled: %s", err)
		return payroll.ProcessorFunc(func(context.Context, model.PayslipLineItem) error {
			return fmt.Errorf("payment gateway is not configured")
		})
	}
	return gateway
}
