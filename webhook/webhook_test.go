package webhook

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/shopsnap/models"
)

func TestNewEvent(t *testing.T) {
	t.Parallel()

	result := &models.ProductResult{ProductModel: "X1"}
	ev := NewEvent(&models.Job{ID: "a", Status: models.JobCompleted, Result: result})
	assert.Equal(t, EventCompleted, ev.Type)
	assert.Equal(t, "a", ev.JobID)
	assert.Same(t, result, ev.Result)

	msg := "boom"
	ev = NewEvent(&models.Job{ID: "b", Status: models.JobFailed, Error: &msg})
	assert.Equal(t, EventFailed, ev.Type)
	assert.Equal(t, "boom", ev.Error)
	assert.Nil(t, ev.Result)
}

func TestDeliver_Signed(t *testing.T) {
	t.Parallel()

	var gotSig string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSig = r.Header.Get(SignatureHeader)
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	s := New("s3cret", nil, nil)
	ev := &Event{Type: EventCompleted, JobID: "j1", Timestamp: 1}
	require.NoError(t, s.Deliver(t.Context(), srv.URL, ev))

	assert.Equal(t, "sha256="+Sign("s3cret", gotBody), gotSig)
	var back Event
	require.NoError(t, json.Unmarshal(gotBody, &back))
	assert.Equal(t, "j1", back.JobID)
}

func TestDeliver_Unsigned(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get(SignatureHeader))
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	err := New("", nil, nil).Deliver(t.Context(), srv.URL, &Event{Type: EventFailed})
	assert.ErrorContains(t, err, "status 502")
}

func TestDeliverAsync_Retries(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := New("", []time.Duration{time.Millisecond, time.Millisecond, time.Millisecond}, nil)
	s.DeliverAsync(srv.URL, &Event{Type: EventCompleted, JobID: "j"})
	s.Wait()
	assert.EqualValues(t, 3, calls.Load())
}

func TestDeliverAsync_Exhausted(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	s := New("", []time.Duration{time.Millisecond, time.Millisecond}, nil)
	s.DeliverAsync(srv.URL, &Event{Type: EventFailed, JobID: "j"})
	s.Wait()
	assert.EqualValues(t, 3, calls.Load())
}
