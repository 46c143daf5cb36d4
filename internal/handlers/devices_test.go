package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"smarthouse/internal/gpio"
	"smarthouse/internal/models"
	"smarthouse/internal/registry"
	"smarthouse/internal/service"
)

func deviceRouter(devices *mockDevices) *gin.Engine {
	return newTestRouter(&service.Service{
		House:   &mockHouse{parseID: "user-1"},
		Devices: devices,
	})
}

func TestAddDevice_Created(t *testing.T) {
	devices := &mockDevices{addResp: models.Device{DeviceID: "dev-1", DeviceName: "Lamp", PinNumber: 17}}
	r := deviceRouter(devices)

	body := bytes.NewBufferString(`{"userName":"Alice","roomId":"room-1","deviceName":"Lamp","pinNumber":17,"wattage":60}`)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/devices", body)
	req.Header = authHeader("tok")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201; body=%s", w.Code, w.Body.String())
	}
	if devices.lastActor.UserID != "user-1" || devices.lastActor.UserName != "Alice" {
		t.Fatalf("actor not forwarded: %+v", devices.lastActor)
	}
}

func TestAddDevice_PinConflict(t *testing.T) {
	devices := &mockDevices{addErr: fmt.Errorf("%w: pin 17", registry.ErrPinConflict)}
	r := deviceRouter(devices)

	body := bytes.NewBufferString(`{"userName":"Alice","roomId":"room-1","deviceName":"Lamp","pinNumber":17}`)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/devices", body)
	req.Header = authHeader("tok")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", w.Code)
	}
}

func TestSwitchDevice_Accepted(t *testing.T) {
	devices := &mockDevices{
		switchResp:    models.Device{DeviceID: "dev-1", Status: true},
		switchApplied: true,
	}
	r := deviceRouter(devices)

	body := bytes.NewBufferString(`{"userName":"Alice","statusTo":true}`)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/devices/dev-1/switch", body)
	req.Header = authHeader("tok")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202; body=%s", w.Code, w.Body.String())
	}
	var resp struct {
		Applied bool `json:"applied"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !resp.Applied {
		t.Fatalf("expected applied=true")
	}
	if devices.lastDeviceID != "dev-1" || !devices.lastSwitchTo {
		t.Fatalf("switch args not forwarded: %+v", devices)
	}
}

func TestSwitchDevice_FalseTargetBinds(t *testing.T) {
	// statusTo=false must pass binding:required (pointer field).
	devices := &mockDevices{switchResp: models.Device{DeviceID: "dev-1"}}
	r := deviceRouter(devices)

	body := bytes.NewBufferString(`{"userName":"Alice","statusTo":false}`)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/devices/dev-1/switch", body)
	req.Header = authHeader("tok")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202; body=%s", w.Code, w.Body.String())
	}
	if devices.lastSwitchTo {
		t.Fatalf("expected statusTo=false forwarded")
	}
}

func TestSwitchDevice_NotFound(t *testing.T) {
	devices := &mockDevices{switchErr: fmt.Errorf("%w: ghost", registry.ErrDeviceNotFound)}
	r := deviceRouter(devices)

	body := bytes.NewBufferString(`{"userName":"Alice","statusTo":true}`)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/devices/ghost/switch", body)
	req.Header = authHeader("tok")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestConfigureDevice_ForwardsSchedule(t *testing.T) {
	devices := &mockDevices{
		confResp:    models.Device{DeviceID: "dev-1", IsScheduled: true, Status: true},
		confChanged: true,
	}
	r := deviceRouter(devices)

	body := bytes.NewBufferString(`{
		"userName":"Alice","deviceName":"Lamp","pinNumber":17,
		"isScheduled":true,"daysScheduled":"Mon,Wed,Fri",
		"startTime":"08:00","offTime":"17:00","wattage":60
	}`)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/api/v1/devices/dev-1", body)
	req.Header = authHeader("tok")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202; body=%s", w.Code, w.Body.String())
	}
	p := devices.lastConfigure
	if p.DeviceID != "dev-1" || !p.IsScheduled || p.StartTime != "08:00" || p.DaysScheduled != "Mon,Wed,Fri" {
		t.Fatalf("configure params not forwarded: %+v", p)
	}
}

func TestConfigureDevice_MalformedTime(t *testing.T) {
	devices := &mockDevices{confErr: fmt.Errorf("%w: %q", service.ErrMalformedTime, "8am")}
	r := deviceRouter(devices)

	body := bytes.NewBufferString(`{"userName":"Alice","deviceName":"Lamp","pinNumber":17,"isScheduled":true,"startTime":"8am","offTime":"17:00"}`)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/api/v1/devices/dev-1", body)
	req.Header = authHeader("tok")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestRemoveDevice_OK(t *testing.T) {
	devices := &mockDevices{}
	r := deviceRouter(devices)

	body := bytes.NewBufferString(`{"userName":"Alice","roomId":"room-1"}`)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/devices/dev-1", body)
	req.Header = authHeader("tok")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body=%s", w.Code, w.Body.String())
	}
	if devices.lastDeviceID != "dev-1" {
		t.Fatalf("device id not forwarded: %q", devices.lastDeviceID)
	}
}

func TestGetAvailablePins(t *testing.T) {
	devices := &mockDevices{pins: []gpio.HeaderPin{
		{HeaderPinNumber: 11, GPIONumber: 17, Type: gpio.PinTypeGPIO},
		{HeaderPinNumber: 6, Type: gpio.PinTypeGround},
	}}
	r := deviceRouter(devices)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/gpio-pins", nil)
	req.Header = authHeader("tok")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp struct {
		Count int              `json:"count"`
		Pins  []gpio.HeaderPin `json:"pins"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Count != 2 || len(resp.Pins) != 2 {
		t.Fatalf("unexpected pins payload: %+v", resp)
	}
}
