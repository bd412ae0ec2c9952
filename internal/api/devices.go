package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/wink-bridge/internal/apron"
	"github.com/nerrad567/wink-bridge/internal/bridge"
)

// deviceDocument is a described device plus the identity block derived
// from its Z-Wave product codes, the same block the Home Assistant
// discovery payload carries.
type deviceDocument struct {
	*apron.Device
	Meta apron.DeviceMeta `json:"meta"`
}

// handleListDevices returns the hub's device table.
func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	devices, err := s.controller.List(r.Context())
	if err != nil {
		writeInternalError(w, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"devices": devices, "count": len(devices)})
}

// handleGetDevice returns a single device with its full attribute table.
func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	id, ok := deviceIDParam(w, r)
	if !ok {
		return
	}

	dev, err := s.controller.Describe(r.Context(), id)
	if err != nil {
		if errors.Is(err, apron.ErrUnknownDevice) {
			writeNotFound(w, err.Error())
			return
		}
		writeInternalError(w, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, deviceDocument{Device: dev, Meta: dev.Meta()})
}

// handleSetDevice writes an attribute batch from a JSON object keyed by
// attribute description, exactly as the device's MQTT set topic would.
func (s *Server) handleSetDevice(w http.ResponseWriter, r *http.Request) {
	id, ok := deviceIDParam(w, r)
	if !ok {
		return
	}

	payload, err := io.ReadAll(r.Body)
	if err != nil {
		writeBadRequest(w, "reading request body: "+err.Error())
		return
	}

	if err := s.engine.ApplyDeviceCommand(r.Context(), id, payload); err != nil {
		writeCommandError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// attributeCommand is the body of a single-attribute write.
type attributeCommand struct {
	Value json.RawMessage `json:"value"`
}

// handleSetAttribute writes one attribute. The value is JSON and is
// decoded against the attribute's declared type.
func (s *Server) handleSetAttribute(w http.ResponseWriter, r *http.Request) {
	id, ok := deviceIDParam(w, r)
	if !ok {
		return
	}
	attrID, ok := attributeIDParam(w, r)
	if !ok {
		return
	}

	var cmd attributeCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if len(cmd.Value) == 0 {
		writeBadRequest(w, "value field is required")
		return
	}

	if err := s.engine.ApplyAttributeCommand(r.Context(), id, attrID, cmd.Value); err != nil {
		writeCommandError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// deviceIDParam parses the {id} URL segment, writing a 400 on failure.
func deviceIDParam(w http.ResponseWriter, r *http.Request) (apron.DeviceID, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		writeBadRequest(w, fmt.Sprintf("device id %q is not a number", raw))
		return 0, false
	}
	return apron.DeviceID(id), true
}

// attributeIDParam parses the {attrID} URL segment, writing a 400 on failure.
func attributeIDParam(w http.ResponseWriter, r *http.Request) (apron.AttributeID, bool) {
	raw := chi.URLParam(r, "attrID")
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		writeBadRequest(w, fmt.Sprintf("attribute id %q is not a number", raw))
		return 0, false
	}
	return apron.AttributeID(id), true
}

// writeCommandError maps an engine write failure onto a status code.
// Hub and command failures surface as a 500 carrying the error message.
func writeCommandError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apron.ErrUnknownDevice), errors.Is(err, apron.ErrUnknownAttribute):
		writeNotFound(w, err.Error())
	case errors.Is(err, bridge.ErrBadPayload), errors.Is(err, apron.ErrNotWritable):
		writeBadRequest(w, err.Error())
	default:
		writeInternalError(w, err.Error())
	}
}
