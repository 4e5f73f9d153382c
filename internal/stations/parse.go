package stations

import (
	"encoding/json"
	"fmt"
)

// Defaults substituted for missing feed fields.
const (
	DefaultAddress = "N/A"
	DefaultName    = "Unknown"
	DefaultStatus  = "Unknown"
)

// Skip describes a feed element that was dropped during parsing. Sibling
// elements are unaffected.
type Skip struct {
	Index  int
	Reason string
}

// rawStation mirrors the feed's JSON shape. Pointer fields distinguish
// absent from zero; a type mismatch fails only the element it occurs in.
type rawStation struct {
	Number              *int64       `json:"number"`
	Address             *string      `json:"address"`
	Banking             *bool        `json:"banking"`
	BikeStands          *int64       `json:"bike_stands"`
	Name                *string      `json:"name"`
	Status              *string      `json:"status"`
	Position            *rawPosition `json:"position"`
	AvailableBikes      *int64       `json:"available_bikes"`
	AvailableBikeStands *int64       `json:"available_bike_stands"`
	LastUpdate          *int64       `json:"last_update"`
}

type rawPosition struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

// ParseStations decodes a JSON array of station objects into typed records.
// Each element decodes independently: a malformed element is reported as a
// Skip and never aborts its siblings. Output order matches input order; an
// empty array yields an empty slice and no error.
func ParseStations(raw []byte) ([]Record, []Skip, error) {
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil, nil, fmt.Errorf("decode stations payload: %w", err)
	}

	records := make([]Record, 0, len(elems))
	var skips []Skip

	for i, elem := range elems {
		var rs rawStation
		if err := json.Unmarshal(elem, &rs); err != nil {
			skips = append(skips, Skip{Index: i, Reason: err.Error()})
			continue
		}
		if rs.Number == nil {
			skips = append(skips, Skip{Index: i, Reason: "missing station number"})
			continue
		}
		records = append(records, rs.toRecord())
	}

	return records, skips, nil
}

func (rs rawStation) toRecord() Record {
	rec := Record{
		Number:  int(*rs.Number),
		Address: DefaultAddress,
		Name:    DefaultName,
		Status:  DefaultStatus,
	}
	if rs.Address != nil {
		rec.Address = *rs.Address
	}
	if rs.Banking != nil {
		rec.Banking = *rs.Banking
	}
	if rs.BikeStands != nil {
		rec.BikeStands = int(*rs.BikeStands)
	}
	if rs.Name != nil {
		rec.Name = *rs.Name
	}
	if rs.Status != nil {
		rec.Status = *rs.Status
	}
	if rs.Position != nil {
		if rs.Position.Lat != nil {
			rec.Latitude = *rs.Position.Lat
		}
		if rs.Position.Lng != nil {
			rec.Longitude = *rs.Position.Lng
		}
	}
	if rs.AvailableBikes != nil {
		rec.AvailableBikes = int(*rs.AvailableBikes)
	}
	if rs.AvailableBikeStands != nil {
		rec.AvailableBikeStands = int(*rs.AvailableBikeStands)
	}
	if rs.LastUpdate != nil {
		rec.LastUpdate = *rs.LastUpdate
	}
	return rec
}
