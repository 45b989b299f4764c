package models

// Requests for the query HTTP endpoints.

type ListSignalsRequest struct {
	Symbol   string `query:"symbol" json:"symbol"`
	Interval string `query:"interval" json:"interval" validate:"omitempty,oneof=1H 4H 1D 1W"`
	Status   string `query:"status" json:"status" validate:"omitempty,oneof=active closed expired cancelled"`
	Limit    int    `query:"limit" json:"limit" default:"50" validate:"gte=1,lte=500"`
}

type GetSignalRequest struct {
	ID int64 `param:"id" validate:"required,gt=0"`
}

type LatestRegimeRequest struct {
	Symbol   string `query:"symbol" json:"symbol" validate:"required"`
	Interval string `query:"interval" json:"interval" default:"1D" validate:"oneof=1H 4H 1D 1W"`
}

type RunPipelineRequest struct {
	Symbols   []string `json:"symbols" validate:"omitempty,dive,required"`
	Intervals []string `json:"intervals" validate:"omitempty,dive,oneof=1H 4H 1D 1W"`
}
