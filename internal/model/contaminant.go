package model

import "fmt"

// Contaminant is a row of site_contaminants with its per-medium status
// columns.
type Contaminant struct {
	SiteID             string  `json:"site_id"`
	ContaminantType    *string `json:"contaminant_type"`
	SoilStatus         *string `json:"soil_status"`
	GroundwaterStatus  *string `json:"groundwater_status"`
	SurfaceWaterStatus *string `json:"surface_water_status"`
	AirStatus          *string `json:"air_status"`
	SedimentStatus     *string `json:"sediment_status"`
	BedrockStatus      *string `json:"bedrock_status"`
}

// mediumColumns maps the contamination media exposed by the filter API to
// the status columns of site_contaminants. Soil is deliberately absent:
// nearly every site has a soil entry, so it carries no filtering signal.
var mediumColumns = map[string]string{
	"Groundwater":   "groundwater_status",
	"Surface Water": "surface_water_status",
	"Air":           "air_status",
	"Sediment":      "sediment_status",
	"Bedrock":       "bedrock_status",
}

// MediumColumn resolves a medium label to its status column. The column name
// comes from this fixed table, never from user input, so it is safe to
// interpolate into SQL.
func MediumColumn(medium string) (string, error) {
	col, ok := mediumColumns[medium]
	if !ok {
		return "", fmt.Errorf("model: unknown contamination medium %q", medium)
	}
	return col, nil
}

// Media returns the filterable medium labels in a stable order.
func Media() []string {
	return []string{"Groundwater", "Surface Water", "Air", "Sediment", "Bedrock"}
}
