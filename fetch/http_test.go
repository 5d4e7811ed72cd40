package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const validPayload = `[
  {
    "filmId": 42,
    "film_name": "Some Film",
    "film_type_name": "Action",
    "deration": "110",
    "timeShowSectionList": [
      {
        "showPk": 9001,
        "unsold": 77,
        "showTime": "18:30",
        "capacity": 150,
        "lang": "EN",
        "dimensional": "2D",
        "price": 40,
        "cardPrice": "55",
        "rebatePrice": 35,
        "serviceCharge": 3,
        "hallName": "Hall 1"
      }
    ]
  }
]`

func TestHTTPAdapter_FetchSchedule(t *testing.T) {
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/trade/time.do" {
			t.Errorf("path = %q, want /trade/time.do", r.URL.Path)
		}
		q := r.URL.Query()
		gotQuery = map[string]string{
			"m":         q.Get("m"),
			"city_code": q.Get("city_code"),
			"cinema_id": q.Get("cinema_id"),
			"day":       q.Get("day"),
		}
		if q.Get("rond") == "" || q.Get("_") == "" {
			t.Error("cache-busting params missing")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(validPayload))
	}))
	defer srv.Close()

	a, err := NewHTTPAdapter(HTTPAdapterOptions{BaseURL: srv.URL})
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()

	sched, meta, err := a.FetchSchedule(context.Background(), Request{
		VenueID: "101", RegionCode: "010", Date: "2024-06-01",
	})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if meta.StatusCode != 200 {
		t.Errorf("status = %d, want 200", meta.StatusCode)
	}

	want := map[string]string{"m": "init", "city_code": "010", "cinema_id": "101", "day": "2024-06-01"}
	for k, v := range want {
		if gotQuery[k] != v {
			t.Errorf("query %s = %q, want %q", k, gotQuery[k], v)
		}
	}

	if len(sched) != 1 || len(sched[0].Shows) != 1 {
		t.Fatalf("unexpected schedule shape: %+v", sched)
	}
	show := sched[0].Shows[0]
	if show.ID.String() != "9001" || show.Unsold != 77 || show.StartTime != "18:30" {
		t.Errorf("unexpected show: %+v", show)
	}
	// numeric-or-string fields decode either way
	if show.Price.String() != "40" || show.CardPrice.String() != "55" {
		t.Errorf("price fields: %s / %s", show.Price, show.CardPrice)
	}
}

func TestHTTPAdapter_FailureClasses(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"http error status", http.StatusBadGateway, "gateway error", ErrTransport},
		{"invalid json", http.StatusOK, `{"oops"`, ErrDecode},
		{"object not array", http.StatusOK, `{"result": []}`, ErrNotCollection},
		{"scalar not array", http.StatusOK, `"maintenance"`, ErrNotCollection},
		{"empty array", http.StatusOK, `[]`, ErrEmpty},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			a, err := NewHTTPAdapter(HTTPAdapterOptions{BaseURL: srv.URL})
			if err != nil {
				t.Fatal(err)
			}
			defer a.Close()

			_, _, err = a.FetchSchedule(context.Background(), Request{VenueID: "101", RegionCode: "010", Date: "2024-06-01"})
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestHTTPAdapter_UnreachableHost(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	a, err := NewHTTPAdapter(HTTPAdapterOptions{BaseURL: srv.URL, Timeout: time.Second})
	if err != nil {
		t.Fatal(err)
	}

	_, _, err = a.FetchSchedule(context.Background(), Request{VenueID: "101"})
	if !errors.Is(err, ErrTransport) {
		t.Errorf("got %v, want ErrTransport", err)
	}
}

func TestNewHTTPAdapter_RequiresBaseURL(t *testing.T) {
	if _, err := NewHTTPAdapter(HTTPAdapterOptions{}); err == nil {
		t.Error("expected error for empty base URL")
	}
}

func TestDecodeSchedule_TrimsWhitespace(t *testing.T) {
	sched, err := DecodeSchedule([]byte("\n  " + validPayload + "  \n"))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(sched) != 1 {
		t.Errorf("got %d films, want 1", len(sched))
	}
}

func TestErrorClass(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{ErrTransport, "transport"},
		{ErrDecode, "decode"},
		{ErrNotCollection, "not_collection"},
		{ErrEmpty, "empty"},
		{errors.New("boom"), "unknown"},
	}
	for _, tt := range tests {
		if got := Class(tt.err); got != tt.want {
			t.Errorf("Class(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
