package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/speedwagon-io/levelmon/internal/metrics"
	"github.com/speedwagon-io/levelmon/internal/model"
	"github.com/speedwagon-io/levelmon/internal/state"
	"github.com/speedwagon-io/levelmon/internal/threshold"
)

const (
	msgOverview         = "all available data"
	msgNotFound         = "there is no such endpoint"
	msgLevelRequired    = "please specify level"
	msgMalformedBody    = "failed parsing json, invalid json format"
	msgCommandRequired  = "must specify command parameter"
	msgCommandInvalid   = "command parameter can only be 'on' or 'off'"
	msgCalibrationQueue = "calibration requested, depth will be checked on next cycle"
	msgSonarOn          = "sonar activated"
	msgSonarOff         = "sonar deactivated"

	paramLevel   = "l"
	paramCommand = "c"
)

// Handlers read and mutate station state on behalf of network requests.
// None of them touch the ranger.
type Handlers struct {
	log     *slog.Logger
	state   *state.State
	metrics *metrics.Metrics
}

type messageResponse struct {
	Message string `json:"message"`
}

type overviewResponse struct {
	Message string `json:"message"`
	model.Reading
}

type depthResponse struct {
	DepthStatus string `json:"depthStatus"`
	Depth       int    `json:"depth"`
	Calibrating bool   `json:"calibrating"`
}

type sonarResponse struct {
	SonarStatus string `json:"sonarStatus"`
}

type waterResponse struct {
	WaterStatus string  `json:"waterStatus"`
	WaterLevel  float64 `json:"waterLevel"`
	Depth       *int    `json:"depth,omitempty"`
	Distance    *int    `json:"distance,omitempty"`
}

func (h *Handlers) Overview(w http.ResponseWriter, r *http.Request) {
	snap := h.state.Snapshot()
	writeJSON(w, http.StatusOK, overviewResponse{
		Message: msgOverview,
		Reading: snap.Reading(),
	})
}

func (h *Handlers) Depth(w http.ResponseWriter, r *http.Request) {
	snap := h.state.Snapshot()
	reading := snap.Reading()
	writeJSON(w, http.StatusOK, depthResponse{
		DepthStatus: reading.DepthStatus,
		Depth:       reading.Depth,
		Calibrating: snap.Calibrating,
	})
}

// RequestCalibration only raises the flag; the next cycle takes the sample.
func (h *Handlers) RequestCalibration(w http.ResponseWriter, r *http.Request) {
	if h.state.Calibration.Request() {
		h.log.Info("calibration requested")
	}
	h.metrics.ObserveConfig("calibration", nil)
	writeJSON(w, http.StatusOK, messageResponse{Message: msgCalibrationQueue})
}

func (h *Handlers) GetLevel(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if !q.Has(paramLevel) {
		writeJSON(w, http.StatusOK, h.state.Thresholds.All())
		return
	}

	lvl, err := parseLevel(q.Get(paramLevel))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	value, err := h.state.Thresholds.Get(lvl)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]float64{
		fmt.Sprintf("level%dBreakpoint", lvl): value,
	})
}

func (h *Handlers) SetLevel(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if !q.Has(paramLevel) {
		writeMessage(w, http.StatusBadRequest, msgLevelRequired)
		return
	}

	lvl, err := parseLevel(q.Get(paramLevel))
	if err != nil {
		h.metrics.ObserveConfig("threshold", err)
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	value, err := decodeValue(w, r)
	if err != nil {
		h.metrics.ObserveConfig("threshold", err)
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	err = h.state.Thresholds.Set(lvl, value)
	h.metrics.ObserveConfig("threshold", err)
	if err != nil {
		h.log.Info("breakpoint rejected",
			slog.Int("level", int(lvl)),
			slog.Float64("value", value),
			slog.String("reason", err.Error()),
		)
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	h.log.Info("breakpoint changed", slog.Int("level", int(lvl)), slog.Float64("value", value))
	writeMessage(w, http.StatusOK, fmt.Sprintf("success changing level %d value", lvl))
}

// SonarStatus ignores any c parameter; only POST changes the toggle.
func (h *Handlers) SonarStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, sonarResponse{SonarStatus: h.state.Snapshot().SonarStatus()})
}

func (h *Handlers) SetSonar(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if !q.Has(paramCommand) {
		writeMessage(w, http.StatusBadRequest, msgCommandRequired)
		return
	}

	switch q.Get(paramCommand) {
	case "on":
		h.state.Monitoring.SetActive(true)
		h.metrics.ObserveConfig("sonar", nil)
		h.log.Info("monitoring activated")
		writeMessage(w, http.StatusOK, msgSonarOn)
	case "off":
		h.state.Monitoring.SetActive(false)
		h.metrics.ObserveConfig("sonar", nil)
		h.log.Info("monitoring deactivated")
		writeMessage(w, http.StatusOK, msgSonarOff)
	default:
		h.metrics.ObserveConfig("sonar", errCommandInvalid)
		writeMessage(w, http.StatusBadRequest, msgCommandInvalid)
	}
}

func (h *Handlers) Water(w http.ResponseWriter, r *http.Request) {
	snap := h.state.Snapshot()
	resp := waterResponse{
		WaterStatus: snap.Status.String(),
		WaterLevel:  snap.Percentage,
	}
	if snap.Active {
		depth := snap.Reading().Depth
		distance := 0
		if snap.Distance.Valid {
			distance = snap.Distance.CM
		}
		resp.Depth = &depth
		resp.Distance = &distance
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handlers) NotFound(w http.ResponseWriter, r *http.Request) {
	writeMessage(w, http.StatusNotFound, msgNotFound)
}

func parseLevel(raw string) (threshold.Level, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || !threshold.Level(n).Valid() {
		return 0, threshold.ErrInvalidLevel
	}
	return threshold.Level(n), nil
}

var (
	errMalformedBody  = errors.New(msgMalformedBody)
	errCommandInvalid = errors.New(msgCommandInvalid)
)

// decodeValue reads {"value": N}; N may be a JSON number or a numeric string.
func decodeValue(w http.ResponseWriter, r *http.Request) (float64, error) {
	var body map[string]json.RawMessage
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<12)).Decode(&body); err != nil {
		return 0, errMalformedBody
	}

	raw, ok := body["value"]
	if !ok || string(raw) == "null" {
		return 0, errMalformedBody
	}

	var num float64
	if err := json.Unmarshal(raw, &num); err == nil {
		return num, nil
	}

	var str string
	if err := json.Unmarshal(raw, &str); err != nil {
		return 0, errMalformedBody
	}
	num, err := strconv.ParseFloat(strings.TrimSpace(str), 64)
	if err != nil {
		return 0, threshold.ErrInvalidValue
	}
	return num, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, messageResponse{Message: message})
}
