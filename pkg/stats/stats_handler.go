package stats

import (
	"encoding/json"
	"net/http"

	"github.com/shopspring/decimal"
)

type MonthStatsDTO struct {
	Month  int                `json:"month"`
	Days   float64            `json:"days"`
	ByType map[string]float64 `json:"byType"`
}

type StatsSummaryDTO struct {
	Year      int             `json:"year"`
	Months    []MonthStatsDTO `json:"months"`
	Types     []string        `json:"types"`
	Budget    float64         `json:"budget"`
	Planned   float64         `json:"planned"`
	Remaining float64         `json:"remaining"`
	InYear    float64         `json:"inYear"`
}

type StatsHandler struct {
	statsService     StatsService
	csvStatsRenderer StatsRenderer
}

func NewStatsHandler(statsService StatsService, csvStatsRenderer StatsRenderer) *StatsHandler {
	return &StatsHandler{statsService, csvStatsRenderer}
}

func (handler *StatsHandler) GetMonthlyStats(w http.ResponseWriter, r *http.Request) {
	stats, err := handler.statsService.GetStats(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if r.URL.Query().Get("format") == "csv" || r.Header.Get("Accept") == "text/csv" {
		csv, err := handler.csvStatsRenderer.RenderStats(stats)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(csv)); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(convertToJsonResponse(stats)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func convertToJsonResponse(stats StatsSummary) StatsSummaryDTO {
	months := make([]MonthStatsDTO, 0, len(stats.Months))
	for _, m := range stats.Months {
		byType := make(map[string]float64, len(m.ByType))
		for name, days := range m.ByType {
			byType[name] = days.InexactFloat64()
		}
		months = append(months, MonthStatsDTO{
			Month:  int(m.Month),
			Days:   m.Days.InexactFloat64(),
			ByType: byType,
		})
	}
	types := stats.Types
	if types == nil {
		types = []string{}
	}

	return StatsSummaryDTO{
		Year:      stats.Year,
		Months:    months,
		Types:     types,
		Budget:    toFloat(stats.Budget),
		Planned:   toFloat(stats.Planned),
		Remaining: toFloat(stats.Remaining),
		InYear:    toFloat(stats.InYear),
	}
}

func toFloat(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}
