package application

import (
	"compress/flate"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/rs/cors"

	"github.com/fieldmon/sensordb-registry/internal/pkg/deployment"
	"github.com/fieldmon/sensordb-registry/internal/pkg/devicetypes"
	"github.com/fieldmon/sensordb-registry/internal/pkg/infrastructure/logging"
	"github.com/fieldmon/sensordb-registry/internal/pkg/infrastructure/repositories/database"
	"github.com/fieldmon/sensordb-registry/internal/pkg/models"
	"github.com/fieldmon/sensordb-registry/internal/pkg/presentation/api"
	"github.com/fieldmon/sensordb-registry/internal/pkg/provisioning"
	"github.com/iot-for-tillgenglighet/messaging-golang/pkg/messaging"
)

type RequestRouter struct {
	impl *chi.Mux
}

//Get accepts a pattern that should be routed to the handlerFn on a GET request
func (router *RequestRouter) Get(pattern string, handlerFn http.HandlerFunc) {
	router.impl.Get(pattern, handlerFn)
}

//Post accepts a pattern that should be routed to the handlerFn on a POST request
func (router *RequestRouter) Post(pattern string, handlerFn http.HandlerFunc) {
	router.impl.Post(pattern, handlerFn)
}

func newRequestRouter(db database.Datastore) *RequestRouter {
	router := &RequestRouter{impl: chi.NewRouter()}

	router.impl.Use(cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowCredentials: true,
		Debug:            false,
	}).Handler)

	// Enable gzip compression for the JSON responses
	compressor := middleware.NewCompressor(flate.DefaultCompression, "application/json")
	router.impl.Use(compressor.Handler)
	router.impl.Use(middleware.Logger)
	router.impl.Use(database.Middleware(db))

	return router
}

func createRequestRouter(log logging.Logger, messenger MessagingContext, db database.Datastore) *RequestRouter {
	router := newRequestRouter(db)

	router.Get("/", welcomeHandler(log))

	router.Post("/locations", createLocationHandler(log))
	router.Get("/locations", listLocationsHandler(log))
	router.Get("/locations/{locationID}", getLocationHandler(log))

	router.Get("/deviceTypes", listDeviceTypesHandler(log))

	router.Post("/devices", createDeviceHandler(log, messenger))
	router.Get("/devices", listDevicesHandler(log))
	router.Get("/devices/{deviceID}", getDeviceHandler(log))
	router.Get("/devices/{deviceID}/sensors", listDeviceSensorsHandler(log))

	router.Post("/deviceLocations", createDeviceLocationHandler(log, messenger))
	router.Get("/deviceLocations", listDeviceLocationsHandler(log))

	return router
}

//MessagingContext is an interface that allows mocking of messaging.Context parameters
type MessagingContext interface {
	PublishOnTopic(message messaging.TopicMessage) error
}

//CreateRouterAndStartServing sets up the request router and starts serving incoming requests
func CreateRouterAndStartServing(log logging.Logger, messenger MessagingContext, db database.Datastore) {
	router := createRequestRouter(log, messenger, db)

	port := os.Getenv("SERVICE_PORT")
	if port == "" {
		port = "8880"
	}

	log.Infof("Starting sensordb-registry on port %s", port)
	log.Fatal(http.ListenAndServe(":"+port, router.impl))
}

//The welcome payload never changes for the life of the process. It is
//computed on first use; concurrent first callers all observe the same value.
var welcomeOnce sync.Once
var welcomePayload map[string]interface{}

func welcomeHandler(log logging.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		welcomeOnce.Do(func() {
			welcomePayload = map[string]interface{}{
				"ok":      true,
				"service": "sensordb-registry",
			}
		})

		respondJSON(w, http.StatusOK, welcomePayload)
	}
}

type createLocationRequest struct {
	Name        string  `json:"name"`
	Responsible string  `json:"responsible"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Elevation   *int    `json:"elevation"`
}

func createLocationHandler(log logging.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		db, err := database.GetFromContext(r.Context())
		if err != nil {
			respondError(w, log, err)
			return
		}

		body := createLocationRequest{}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			respondBadRequest(w, "failed to decode location from request body")
			return
		}

		if body.Name == "" {
			respondBadRequest(w, "location name may not be empty")
			return
		}

		location, err := db.CreateLocation(body.Name, body.Responsible, body.Latitude, body.Longitude, body.Elevation)
		if err != nil {
			respondError(w, log, err)
			return
		}

		respondJSON(w, http.StatusCreated, map[string]interface{}{
			"ok":       true,
			"action":   "insert location",
			"location": api.NewLocationJSON(location),
		})
	}
}

func listLocationsHandler(log logging.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		db, err := database.GetFromContext(r.Context())
		if err != nil {
			respondError(w, log, err)
			return
		}

		locations, err := db.GetLocations()
		if err != nil {
			respondError(w, log, err)
			return
		}

		locationArr := make([]api.LocationJSON, 0, len(locations))
		for idx := range locations {
			locationArr = append(locationArr, api.NewLocationJSON(&locations[idx]))
		}

		respondJSON(w, http.StatusOK, map[string]interface{}{
			"ok":        true,
			"locations": locationArr,
		})
	}
}

func getLocationHandler(log logging.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		db, err := database.GetFromContext(r.Context())
		if err != nil {
			respondError(w, log, err)
			return
		}

		location, err := db.GetLocationFromID(chi.URLParam(r, "locationID"))
		if err != nil {
			respondError(w, log, err)
			return
		}

		respondJSON(w, http.StatusOK, map[string]interface{}{
			"ok":        true,
			"locations": []api.LocationJSON{api.NewLocationJSON(location)},
		})
	}
}

func listDeviceTypesHandler(log logging.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		deviceTypes := devicetypes.List()

		deviceTypeArr := make([]api.DeviceTypeJSON, 0, len(deviceTypes))
		for _, deviceType := range deviceTypes {
			deviceTypeArr = append(deviceTypeArr, api.NewDeviceTypeJSON(deviceType))
		}

		respondJSON(w, http.StatusOK, map[string]interface{}{
			"ok":          true,
			"deviceTypes": deviceTypeArr,
		})
	}
}

type createDeviceRequest struct {
	SerialNumber string `json:"serialNumber"`
	DeviceType   string `json:"device_type"`
	Notes        string `json:"notes"`
}

func createDeviceHandler(log logging.Logger, messenger MessagingContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		db, err := database.GetFromContext(r.Context())
		if err != nil {
			respondError(w, log, err)
			return
		}

		body := createDeviceRequest{}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			respondBadRequest(w, "failed to decode device from request body")
			return
		}

		provisioned, err := provisioning.NewService(db, log).CreateDevice(body.SerialNumber, body.DeviceType, body.Notes)
		if err != nil {
			respondError(w, log, err)
			return
		}

		publishDeviceRegistered(log, messenger, &provisioned.Device)

		respondJSON(w, http.StatusCreated, map[string]interface{}{
			"ok":     true,
			"action": "insert device",
			"device": api.NewProvisionedDeviceJSON(&provisioned.Device, provisioned.Sensors),
		})
	}
}

func listDevicesHandler(log logging.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		db, err := database.GetFromContext(r.Context())
		if err != nil {
			respondError(w, log, err)
			return
		}

		devices, err := db.GetDevices()
		if err != nil {
			respondError(w, log, err)
			return
		}

		deviceArr := make([]api.DeviceJSON, 0, len(devices))
		for idx := range devices {
			deviceArr = append(deviceArr, api.NewDeviceJSON(&devices[idx]))
		}

		respondJSON(w, http.StatusOK, map[string]interface{}{
			"ok":      true,
			"devices": deviceArr,
		})
	}
}

func getDeviceHandler(log logging.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		db, err := database.GetFromContext(r.Context())
		if err != nil {
			respondError(w, log, err)
			return
		}

		device, err := db.GetDeviceFromID(chi.URLParam(r, "deviceID"))
		if err != nil {
			respondError(w, log, err)
			return
		}

		respondJSON(w, http.StatusOK, map[string]interface{}{
			"ok":      true,
			"devices": []api.DeviceJSON{api.NewDeviceJSON(device)},
		})
	}
}

func listDeviceSensorsHandler(log logging.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		db, err := database.GetFromContext(r.Context())
		if err != nil {
			respondError(w, log, err)
			return
		}

		sensors, err := db.GetSensorsFromDeviceID(chi.URLParam(r, "deviceID"))
		if err != nil {
			respondError(w, log, err)
			return
		}

		sensorArr := make([]api.SensorJSON, 0, len(sensors))
		for idx := range sensors {
			sensorArr = append(sensorArr, api.NewSensorJSON(&sensors[idx]))
		}

		respondJSON(w, http.StatusOK, map[string]interface{}{
			"ok":      true,
			"sensors": sensorArr,
		})
	}
}

type createDeviceLocationRequest struct {
	Timestamp  int64  `json:"timestamp"`
	DeviceID   string `json:"device_id"`
	LocationID string `json:"location_id"`
	Notes      string `json:"notes"`
}

func createDeviceLocationHandler(log logging.Logger, messenger MessagingContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		db, err := database.GetFromContext(r.Context())
		if err != nil {
			respondError(w, log, err)
			return
		}

		body := createDeviceLocationRequest{}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			respondBadRequest(w, "failed to decode deviceLocation from request body")
			return
		}

		timestamp := time.Unix(0, body.Timestamp*int64(time.Millisecond)).UTC()

		deviceLocation, err := deployment.NewService(db, log).Assign(timestamp, body.DeviceID, body.LocationID, body.Notes)
		if err != nil {
			respondError(w, log, err)
			return
		}

		publishDeviceDeployed(log, messenger, deviceLocation)

		respondJSON(w, http.StatusCreated, map[string]interface{}{
			"ok":             true,
			"action":         "insert deviceLocation",
			"deviceLocation": api.NewDeviceLocationJSON(deviceLocation),
		})
	}
}

func listDeviceLocationsHandler(log logging.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		db, err := database.GetFromContext(r.Context())
		if err != nil {
			respondError(w, log, err)
			return
		}

		deviceLocations, err := db.GetDeviceLocations()
		if err != nil {
			respondError(w, log, err)
			return
		}

		deviceLocationArr := make([]api.DeviceLocationJSON, 0, len(deviceLocations))
		for idx := range deviceLocations {
			deviceLocationArr = append(deviceLocationArr, api.NewDeviceLocationJSON(&deviceLocations[idx]))
		}

		respondJSON(w, http.StatusOK, map[string]interface{}{
			"ok":              true,
			"deviceLocations": deviceLocationArr,
		})
	}
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func respondBadRequest(w http.ResponseWriter, message string) {
	respondJSON(w, http.StatusBadRequest, map[string]interface{}{
		"ok":    false,
		"error": message,
	})
}

//respondError maps the error taxonomy onto HTTP statuses: validation
//failures are client errors, missing references are 404 and everything
//else, duplicate references included, is a server side failure
func respondError(w http.ResponseWriter, log logging.Logger, err error) {
	status := http.StatusInternalServerError

	switch typedError(err).(type) {
	case *models.UnknownDeviceTypeError, *models.MalformedIdentifierError:
		status = http.StatusBadRequest
	case *models.NotFoundError:
		status = http.StatusNotFound
	}

	if status == http.StatusInternalServerError {
		log.Errorf("Request failed: %s", err.Error())
	}

	respondJSON(w, status, map[string]interface{}{
		"ok":    false,
		"error": err.Error(),
	})
}

//typedError digs the first taxonomy error out of a wrapped chain
func typedError(err error) error {
	var unknownType *models.UnknownDeviceTypeError
	var malformed *models.MalformedIdentifierError
	var notFound *models.NotFoundError
	var duplicate *models.DuplicateReferenceError

	if errors.As(err, &unknownType) {
		return unknownType
	}
	if errors.As(err, &malformed) {
		return malformed
	}
	if errors.As(err, &notFound) {
		return notFound
	}
	if errors.As(err, &duplicate) {
		return duplicate
	}

	return err
}
