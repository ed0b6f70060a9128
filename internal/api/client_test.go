// internal/api/client_test.go
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gestured/labstream/internal/models"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func TestChemicals(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/reactions/chemicals/", r.URL.Path)
		w.Write([]byte(`{"chemicals":[{"id":"HCl","label":"Hydrochloric Acid","formula":"HCl","type":"acid"}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/reactions", testLogger())
	chems, err := c.Chemicals(context.Background())
	require.NoError(t, err)
	require.Len(t, chems, 1)
	assert.Equal(t, "HCl", chems[0].ID)
	assert.Equal(t, models.TypeAcid, chems[0].Type)
}

func TestCurrentReaction(t *testing.T) {
	var body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/reactions/current/", r.URL.Path)
		w.Write([]byte(body))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/reactions/", testLogger())

	body = `{"active_reaction":"red_litmus"}`
	mode, err := c.CurrentReaction(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.IndicatorRedLitmus, mode)

	body = `{"active_reaction":null}`
	mode, err = c.CurrentReaction(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.IndicatorUnset, mode)
}

func TestSetChemicalFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/reactions/set-chemical/", r.URL.Path)

		var payload struct {
			ChemicalID string `json:"chemical_id"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		if payload.ChemicalID != "HCl" {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":"Unknown chemical."}`))
			return
		}
		w.Write([]byte(`{"message":"Chemical set to HCl."}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/reactions/", testLogger())
	require.NoError(t, c.SetChemical(context.Background(), "HCl"))

	err := c.SetChemical(context.Background(), "Unobtanium")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Unknown chemical")
}

func TestStartReactionValidatesMode(t *testing.T) {
	c := NewClient("http://localhost:0/reactions/", testLogger())
	assert.Error(t, c.StartReaction(context.Background(), "green_litmus"))
	assert.Error(t, c.StartReaction(context.Background(), models.IndicatorUnset))
}

// TestPollerRetriesAndStops: the poller ignores failures, keeps ticking,
// and stops permanently once it observes a complete status.
func TestPollerRetriesAndStops(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/reactions/status/", r.URL.Path)
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		switch {
		case n == 1:
			w.WriteHeader(http.StatusBadGateway) // first tick fails, retried
		case n < 3:
			w.Write([]byte(`{"complete":false}`))
		default:
			w.Write([]byte(`{"complete":true,"chemical":{"id":"NaOH","type":"base"},"reaction_type":"red_litmus"}`))
		}
	}))
	defer srv.Close()

	done := make(chan Status, 1)
	p := NewPoller(NewClient(srv.URL+"/reactions/", testLogger()), 10*time.Millisecond, func(st Status) {
		done <- st
	}, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	finished := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(finished)
	}()

	st := <-done
	assert.True(t, st.Complete)
	require.NotNil(t, st.Chemical)
	assert.Equal(t, "NaOH", st.Chemical.ID)
	assert.Equal(t, models.IndicatorRedLitmus, st.ReactionType)

	<-finished
	mu.Lock()
	after := calls
	mu.Unlock()

	// No further polls once completion was reported.
	time.Sleep(30 * time.Millisecond)
	mu.Lock()
	assert.Equal(t, after, calls)
	mu.Unlock()
}

// TestPollerStopsOnCancel: cancellation (outcome committed via the push
// path, or teardown) halts polling within one tick.
func TestPollerStopsOnCancel(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		mu.Unlock()
		w.Write([]byte(`{"complete":false}`))
	}))
	defer srv.Close()

	p := NewPoller(NewClient(srv.URL+"/reactions/", testLogger()), 10*time.Millisecond, func(Status) {
		t.Error("onComplete must not fire")
	}, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	finished := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(finished)
	}()

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return calls >= 2
	}, time.Second, 5*time.Millisecond)

	cancel()
	<-finished

	mu.Lock()
	at := calls
	mu.Unlock()
	time.Sleep(30 * time.Millisecond)
	mu.Lock()
	assert.LessOrEqual(t, calls, at+1, "polling must stop after cancellation")
	mu.Unlock()
}
