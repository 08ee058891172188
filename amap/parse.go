package amap

import (
	"encoding/json"
	"fmt"
	"github.com/paulmach/orb"
	"io"
	"strconv"
	"strings"
)

// ParseJSON decodes a place/text response body. A response whose status is
// not "1" is returned as an *APIError.
func ParseJSON(r io.Reader) ([]Place, error) {
	var resp rawResponse
	if err := json.NewDecoder(r).Decode(&resp); err != nil {
		return nil, err
	}

	if resp.Status != "1" {
		return nil, &APIError{Info: resp.Info, InfoCode: resp.InfoCode}
	}

	places := make([]Place, 0, len(resp.Pois))
	for _, poi := range resp.Pois {
		if poi.Location == "" {
			continue
		}
		loc, err := ParseLocation(string(poi.Location))
		if err != nil {
			return nil, fmt.Errorf("poi %s: %w", poi.ID, err)
		}
		places = append(places, Place{
			ID:       poi.ID,
			Name:     poi.Name,
			Type:     poi.Type,
			Address:  string(poi.Address),
			Province: string(poi.PName),
			City:     string(poi.CityName),
			District: string(poi.AdName),
			Location: loc,
		})
	}
	return places, nil
}

// ParseLocation parses the service's "lon,lat" form.
func ParseLocation(s string) (orb.Point, error) {
	lonS, latS, ok := strings.Cut(s, ",")
	if !ok {
		return orb.Point{}, fmt.Errorf("malformed location %q", s)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(lonS), 64)
	if err != nil {
		return orb.Point{}, fmt.Errorf("malformed location %q: %w", s, err)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(latS), 64)
	if err != nil {
		return orb.Point{}, fmt.Errorf("malformed location %q: %w", s, err)
	}
	if lon < -180 || lon > 180 || lat < -90 || lat > 90 {
		return orb.Point{}, fmt.Errorf("location out of range %q", s)
	}
	return orb.Point{lon, lat}, nil
}
