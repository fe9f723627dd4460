package generatetrip

import "trip-workers/internal/models"

type Input struct {
	Country      string           `json:"country"`
	NumberOfDays int              `json:"numberOfDays"`
	TravelStyle  string           `json:"travelStyle"`
	Interests    models.Interests `json:"interests"`
	Budget       string           `json:"budget"`
	GroupType    string           `json:"groupType"`
	UserID       string           `json:"userId"`
}

func (i *Input) toRequest() models.TripRequest {
	return models.TripRequest{
		Country:      i.Country,
		NumberOfDays: i.NumberOfDays,
		TravelStyle:  i.TravelStyle,
		Interests:    i.Interests,
		Budget:       i.Budget,
		GroupType:    i.GroupType,
		UserID:       i.UserID,
	}
}

type Output struct {
	ID string `json:"id"`
}
