package models

import (
	"fmt"
	"strconv"
	"strings"
)

//SRID is the spatial reference system used for all stored coordinates
const SRID = 4326

//WKTPoint encodes the location coordinates as a Well-Known-Text point.
//Storage text uses lng-then-lat coordinate order.
func (l *Location) WKTPoint() string {
	return fmt.Sprintf("POINT(%f %f)", l.Longitude, l.Latitude)
}

//ParseWKTPoint decodes a Well-Known-Text point into latitude and longitude
func ParseWKTPoint(wkt string) (lat float64, lng float64, err error) {
	s := strings.TrimSpace(wkt)
	if !strings.HasPrefix(s, "POINT(") || !strings.HasSuffix(s, ")") {
		return 0, 0, fmt.Errorf("not a WKT point: %s", wkt)
	}

	s = strings.TrimSuffix(strings.TrimPrefix(s, "POINT("), ")")
	parts := strings.Fields(s)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("not a WKT point: %s", wkt)
	}

	lng, err = strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return 0, 0, fmt.Errorf("bad longitude in WKT point %s: %s", wkt, err.Error())
	}

	lat, err = strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return 0, 0, fmt.Errorf("bad latitude in WKT point %s: %s", wkt, err.Error())
	}

	return lat, lng, nil
}
