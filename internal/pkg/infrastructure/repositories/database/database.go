package database

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/fieldmon/sensordb-registry/internal/pkg/infrastructure/logging"
	dbmodels "github.com/fieldmon/sensordb-registry/internal/pkg/infrastructure/repositories/models"
	"github.com/fieldmon/sensordb-registry/internal/pkg/models"
	"github.com/google/uuid"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

//Datastore is an interface that is used to inject the database into different handlers to improve testability
type Datastore interface {
	CreateLocation(name, responsible string, lat, lng float64, elevation *int) (*models.Location, error)
	GetLocations() ([]models.Location, error)
	GetLocationFromID(id string) (*models.Location, error)

	CreateDeviceWithSensors(serialNumber, deviceType, notes string, specs []models.SensorSpec) (*models.Device, []models.Sensor, error)
	GetDevices() ([]models.Device, error)
	GetDeviceFromID(id string) (*models.Device, error)
	GetSensorsFromDeviceID(id string) ([]models.Sensor, error)

	AddDeviceLocation(timestamp time.Time, deviceID, locationID, notes string) (*models.DeviceLocation, error)
	GetDeviceLocations() ([]models.DeviceLocation, error)
}

var dbCtxKey = &databaseContextKey{"database"}

type databaseContextKey struct {
	name string
}

// Middleware packs a pointer to the datastore into context
func Middleware(db Datastore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), dbCtxKey, db)

			// and call the next with our new context
			r = r.WithContext(ctx)
			next.ServeHTTP(w, r)
		})
	}
}

//GetFromContext extracts the database wrapper, if any, from the provided context
func GetFromContext(ctx context.Context) (Datastore, error) {
	db, ok := ctx.Value(dbCtxKey).(Datastore)
	if ok {
		return db, nil
	}

	return nil, errors.New("failed to decode database from context")
}

type myDB struct {
	impl *gorm.DB
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

//ConnectorFunc is used to inject a database connection method into NewDatabaseConnection
type ConnectorFunc func() (*gorm.DB, error)

//NewPostgreSQLConnector opens a connection to a postgresql database
func NewPostgreSQLConnector(log logging.Logger) ConnectorFunc {
	dbHost := os.Getenv("SENSORDB_DB_HOST")
	username := os.Getenv("SENSORDB_DB_USER")
	dbName := os.Getenv("SENSORDB_DB_NAME")
	password := os.Getenv("SENSORDB_DB_PASSWORD")
	sslMode := getEnv("SENSORDB_DB_SSLMODE", "require")

	dbURI := fmt.Sprintf("host=%s user=%s dbname=%s sslmode=%s password=%s", dbHost, username, dbName, sslMode, password)

	return func() (*gorm.DB, error) {
		for {
			log.Infof("Connecting to database host %s ...", dbHost)
			db, err := gorm.Open(postgres.Open(dbURI), &gorm.Config{})
			if err != nil {
				log.Warnf("Failed to connect to database, retrying: %s", err.Error())
				time.Sleep(3 * time.Second)
			} else {
				return db, nil
			}
		}
	}
}

//NewSQLiteConnector opens a connection to a local sqlite database
func NewSQLiteConnector() ConnectorFunc {
	return func() (*gorm.DB, error) {
		db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})

		if err == nil {
			db.Exec("PRAGMA foreign_keys = ON")
		}

		return db, err
	}
}

//NewDatabaseConnection initializes a new connection to the database and wraps it in a Datastore
func NewDatabaseConnection(connect ConnectorFunc, log logging.Logger) (Datastore, error) {
	impl, err := connect()
	if err != nil {
		return nil, err
	}

	db := &myDB{
		impl: impl,
	}

	err = db.impl.AutoMigrate(
		&dbmodels.Location{},
		&dbmodels.Device{},
		&dbmodels.Sensor{},
		&dbmodels.DeviceLocation{},
	)
	if err != nil {
		log.Errorf("Failed to migrate database schema: %s", err.Error())
		return nil, err
	}

	return db, nil
}

func (db *myDB) CreateLocation(name, responsible string, lat, lng float64, elevation *int) (*models.Location, error) {
	location := &dbmodels.Location{
		Name:        name,
		Responsible: responsible,
		Latitude:    lat,
		Longitude:   lng,
		Elevation:   elevation,
	}

	if result := db.impl.Create(location); result.Error != nil {
		return nil, models.NewPersistenceError("error inserting location into database", result.Error)
	}

	return locationRecord(location), nil
}

func (db *myDB) GetLocations() ([]models.Location, error) {
	rows := []dbmodels.Location{}
	if result := db.impl.Find(&rows); result.Error != nil {
		return nil, models.NewPersistenceError("error retrieving all locations from database", result.Error)
	}

	locations := make([]models.Location, 0, len(rows))
	for idx := range rows {
		locations = append(locations, *locationRecord(&rows[idx]))
	}

	return locations, nil
}

func (db *myDB) GetLocationFromID(id string) (*models.Location, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, &models.MalformedIdentifierError{ID: id}
	}

	rows := []dbmodels.Location{}
	if result := db.impl.Find(&rows, "id = ?", id); result.Error != nil {
		return nil, models.NewPersistenceError("error retrieving location ("+id+") from database", result.Error)
	}

	if len(rows) == 0 {
		return nil, &models.NotFoundError{Entity: "location", ID: id}
	}
	if len(rows) > 1 {
		return nil, &models.DuplicateReferenceError{Entity: "location", ID: id}
	}

	return locationRecord(&rows[0]), nil
}

func (db *myDB) CreateDeviceWithSensors(serialNumber, deviceType, notes string, specs []models.SensorSpec) (*models.Device, []models.Sensor, error) {
	device := &dbmodels.Device{
		SerialNumber: serialNumber,
		DeviceType:   deviceType,
		Notes:        notes,
	}
	rows := make([]dbmodels.Sensor, 0, len(specs))

	// The device and its full sensor set become visible together, or not
	// at all. A failed sensor insert aborts the whole transaction.
	err := db.impl.Transaction(func(tx *gorm.DB) error {
		if result := tx.Create(device); result.Error != nil {
			return result.Error
		}

		for idx, spec := range specs {
			sensor := dbmodels.Sensor{
				DeviceID:          device.ID,
				Position:          idx,
				Label:             spec.Label,
				TypeOfMeasurement: spec.TypeOfMeasurement,
				UnitOfMeasurement: spec.Unit,
			}
			if result := tx.Create(&sensor); result.Error != nil {
				return result.Error
			}
			rows = append(rows, sensor)
		}

		return nil
	})

	if err != nil {
		return nil, nil, models.NewPersistenceError("error inserting device into database", err)
	}

	sensors := make([]models.Sensor, 0, len(rows))
	for idx := range rows {
		sensors = append(sensors, *sensorRecord(&rows[idx]))
	}

	return deviceRecord(device), sensors, nil
}

func (db *myDB) GetDevices() ([]models.Device, error) {
	rows := []dbmodels.Device{}
	if result := db.impl.Find(&rows); result.Error != nil {
		return nil, models.NewPersistenceError("error retrieving all devices from database", result.Error)
	}

	devices := make([]models.Device, 0, len(rows))
	for idx := range rows {
		devices = append(devices, *deviceRecord(&rows[idx]))
	}

	return devices, nil
}

func (db *myDB) GetDeviceFromID(id string) (*models.Device, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, &models.MalformedIdentifierError{ID: id}
	}

	rows := []dbmodels.Device{}
	if result := db.impl.Find(&rows, "id = ?", id); result.Error != nil {
		return nil, models.NewPersistenceError("error retrieving device ("+id+") from database", result.Error)
	}

	if len(rows) == 0 {
		return nil, &models.NotFoundError{Entity: "device", ID: id}
	}
	if len(rows) > 1 {
		return nil, &models.DuplicateReferenceError{Entity: "device", ID: id}
	}

	return deviceRecord(&rows[0]), nil
}

func (db *myDB) GetSensorsFromDeviceID(id string) ([]models.Sensor, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, &models.MalformedIdentifierError{ID: id}
	}

	rows := []dbmodels.Sensor{}
	if result := db.impl.Order("position").Find(&rows, "device_id = ?", id); result.Error != nil {
		return nil, models.NewPersistenceError("error retrieving sensors for device ("+id+") from database", result.Error)
	}

	sensors := make([]models.Sensor, 0, len(rows))
	for idx := range rows {
		sensors = append(sensors, *sensorRecord(&rows[idx]))
	}

	return sensors, nil
}

func (db *myDB) AddDeviceLocation(timestamp time.Time, deviceID, locationID, notes string) (*models.DeviceLocation, error) {
	if _, err := uuid.Parse(deviceID); err != nil {
		return nil, &models.MalformedIdentifierError{ID: deviceID}
	}
	if _, err := uuid.Parse(locationID); err != nil {
		return nil, &models.MalformedIdentifierError{ID: locationID}
	}

	row := &dbmodels.DeviceLocation{
		Timestamp:  timestamp,
		DeviceID:   deviceID,
		LocationID: locationID,
		Notes:      notes,
	}

	// Validation and insert observe one snapshot so the referenced rows
	// cannot vanish in between. The foreign keys back this up.
	err := db.impl.Transaction(func(tx *gorm.DB) error {
		if err := requireExactlyOne(tx, &dbmodels.Device{}, "device", deviceID); err != nil {
			return err
		}
		if err := requireExactlyOne(tx, &dbmodels.Location{}, "location", locationID); err != nil {
			return err
		}

		if result := tx.Create(row); result.Error != nil {
			return models.NewPersistenceError("error inserting deviceLocation into database", result.Error)
		}

		return nil
	})

	if err != nil {
		return nil, asDatastoreError("error inserting deviceLocation into database", err)
	}

	return deviceLocationRecord(row), nil
}

func (db *myDB) GetDeviceLocations() ([]models.DeviceLocation, error) {
	rows := []dbmodels.DeviceLocation{}
	if result := db.impl.Find(&rows); result.Error != nil {
		return nil, models.NewPersistenceError("error retrieving all deviceLocations from database", result.Error)
	}

	deviceLocations := make([]models.DeviceLocation, 0, len(rows))
	for idx := range rows {
		deviceLocations = append(deviceLocations, *deviceLocationRecord(&rows[idx]))
	}

	return deviceLocations, nil
}

//requireExactlyOne fails unless the identifier resolves to exactly one row
//of the given model
func requireExactlyOne(tx *gorm.DB, model interface{}, entity, id string) error {
	var count int64
	if result := tx.Model(model).Where("id = ?", id).Count(&count); result.Error != nil {
		return models.NewPersistenceError("error finding "+entity+" ("+id+") in database", result.Error)
	}

	if count == 0 {
		return &models.NotFoundError{Entity: entity, ID: id}
	}
	if count > 1 {
		return &models.DuplicateReferenceError{Entity: entity, ID: id}
	}

	return nil
}

//asDatastoreError passes typed datastore errors through untouched and wraps
//anything else with operation context
func asDatastoreError(op string, err error) error {
	var notFound *models.NotFoundError
	var duplicate *models.DuplicateReferenceError
	var persistence *models.PersistenceError

	if errors.As(err, &notFound) || errors.As(err, &duplicate) || errors.As(err, &persistence) {
		return err
	}

	return models.NewPersistenceError(op, err)
}

func locationRecord(l *dbmodels.Location) *models.Location {
	return &models.Location{
		ID:          l.ID,
		Name:        l.Name,
		Responsible: l.Responsible,
		Latitude:    l.Latitude,
		Longitude:   l.Longitude,
		Elevation:   l.Elevation,
	}
}

func deviceRecord(d *dbmodels.Device) *models.Device {
	return &models.Device{
		ID:           d.ID,
		SerialNumber: d.SerialNumber,
		DeviceType:   d.DeviceType,
		Notes:        d.Notes,
	}
}

func sensorRecord(s *dbmodels.Sensor) *models.Sensor {
	return &models.Sensor{
		ID:                s.ID,
		DeviceID:          s.DeviceID,
		Label:             s.Label,
		TypeOfMeasurement: s.TypeOfMeasurement,
		UnitOfMeasurement: s.UnitOfMeasurement,
	}
}

func deviceLocationRecord(dl *dbmodels.DeviceLocation) *models.DeviceLocation {
	return &models.DeviceLocation{
		ID:         dl.ID,
		Timestamp:  dl.Timestamp,
		DeviceID:   dl.DeviceID,
		LocationID: dl.LocationID,
		Notes:      dl.Notes,
	}
}
