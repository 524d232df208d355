package main

import (
	"github.com/fieldmon/sensordb-registry/internal/pkg/application"
	"github.com/fieldmon/sensordb-registry/internal/pkg/infrastructure/logging"
	"github.com/fieldmon/sensordb-registry/internal/pkg/infrastructure/repositories/database"
	"github.com/iot-for-tillgenglighet/messaging-golang/pkg/messaging"
	"github.com/joho/godotenv"
)

func main() {

	serviceName := "sensordb-registry"

	log := logging.NewLogger()
	log.Infof("Starting up %s ...", serviceName)

	if err := godotenv.Load(); err != nil {
		log.Infof("No .env file found, relying on the environment")
	}

	config := messaging.LoadConfiguration(serviceName)
	messenger, _ := messaging.Initialize(config)

	defer messenger.Close()

	db, err := database.NewDatabaseConnection(database.NewPostgreSQLConnector(log), log)
	if err != nil {
		log.Fatal(err.Error())
	}

	application.CreateRouterAndStartServing(log, messenger, db)
}
