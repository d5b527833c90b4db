package models

// PredictionRequest is the validated input record for a prediction
type PredictionRequest struct {
	Latitude        float64   `json:"latitude" binding:"min=-90,max=90"`
	Longitude       float64   `json:"longitude" binding:"min=-180,max=180"`
	LocationName    string    `json:"location_name,omitempty"`
	SurfaceAreaM2   float64   `json:"surface_area_m2" binding:"required,gt=0"`
	TiltAngleDeg    float64   `json:"tilt_angle_deg" binding:"min=0,max=90"`
	AzimuthAngleDeg float64   `json:"azimuth_angle_deg" binding:"min=0,lt=360"`
	PanelEfficiency float64   `json:"panel_efficiency" binding:"required,gt=0,max=1"`
	Timeframe       Timeframe `json:"timeframe,omitempty"`
}

// Location builds the Location value from the request
func (r PredictionRequest) Location() Location {
	return Location{Latitude: r.Latitude, Longitude: r.Longitude, Name: r.LocationName}
}

// Panel builds the PanelConfiguration value from the request
func (r PredictionRequest) Panel() PanelConfiguration {
	return PanelConfiguration{
		SurfaceAreaM2:   r.SurfaceAreaM2,
		TiltAngleDeg:    r.TiltAngleDeg,
		AzimuthAngleDeg: r.AzimuthAngleDeg,
		PanelEfficiency: r.PanelEfficiency,
	}
}

// RecommendationRequest is the validated input record for an optimization
type RecommendationRequest struct {
	Latitude        float64  `json:"latitude" binding:"min=-90,max=90"`
	Longitude       float64  `json:"longitude" binding:"min=-180,max=180"`
	LocationName    string   `json:"location_name,omitempty"`
	SurfaceAreaM2   float64  `json:"surface_area_m2" binding:"required,gt=0"`
	PanelEfficiency float64  `json:"panel_efficiency" binding:"required,gt=0,max=1"`
	CurrentTilt     *float64 `json:"current_tilt_deg,omitempty" binding:"omitempty,min=0,max=90"`
	CurrentAzimuth  *float64 `json:"current_azimuth_deg,omitempty" binding:"omitempty,min=0,lt=360"`
}

// Location builds the Location value from the request
func (r RecommendationRequest) Location() Location {
	return Location{Latitude: r.Latitude, Longitude: r.Longitude, Name: r.LocationName}
}

// CurrentConfiguration returns the baseline configuration when both angles
// were supplied, nil otherwise.
func (r RecommendationRequest) CurrentConfiguration() *PanelConfiguration {
	if r.CurrentTilt == nil || r.CurrentAzimuth == nil {
		return nil
	}
	return &PanelConfiguration{
		SurfaceAreaM2:   r.SurfaceAreaM2,
		TiltAngleDeg:    *r.CurrentTilt,
		AzimuthAngleDeg: *r.CurrentAzimuth,
		PanelEfficiency: r.PanelEfficiency,
	}
}

// RetrainRequest triggers a model retrain
type RetrainRequest struct {
	Samples int  `json:"samples,omitempty" binding:"omitempty,gt=0"`
	Force   bool `json:"force,omitempty"`
}
