package academysvc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/tdvu/courtside/core"
	"github.com/tdvu/courtside/core/academy"
	"github.com/tdvu/courtside/core/payment"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	conf := core.NewConfig()
	conf.Academy.BaseURL = srv.URL
	return NewClient(conf), srv
}

func writeEnvelope(t *testing.T, w http.ResponseWriter, code int, msg string, data interface{}) {
	t.Helper()
	if err := json.NewEncoder(w).Encode(map[string]interface{}{
		"code": code, "message": msg, "data": data,
	}); err != nil {
		t.Fatalf("encoding envelope: %v", err)
	}
}

func TestClientEnvelope(t *testing.T) {
	t.Run("success unwraps data", func(t *testing.T) {
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/courses/all" {
				t.Errorf("path = %q", r.URL.Path)
			}
			writeEnvelope(t, w, 200, "OK", []academy.Course{
				{ID: "c1", CourseName: "Footwork Basics", Level: academy.LevelBeginner, Fee: 150},
			})
		}))

		courses, err := client.Courses(context.Background())
		if err != nil {
			t.Fatalf("Courses() error = %v", err)
		}
		if len(courses) != 1 || courses[0].CourseName != "Footwork Basics" {
			t.Errorf("Courses() = %+v", courses)
		}
	})

	t.Run("backend failure code becomes APIError", func(t *testing.T) {
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeEnvelope(t, w, 404, "Course not found", nil)
		}))

		_, err := client.Course(context.Background(), "nope")
		apiErr := new(academy.APIError)
		if !errors.As(err, &apiErr) {
			t.Fatalf("Course() error = %v; want *academy.APIError", err)
		}
		if apiErr.Code != 404 || apiErr.Message != "Course not found" {
			t.Errorf("APIError = %+v", apiErr)
		}
	})

	t.Run("non-2xx without envelope becomes APIError", func(t *testing.T) {
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "bad gateway", http.StatusBadGateway)
		}))

		_, err := client.CountCourses(context.Background())
		apiErr := new(academy.APIError)
		if !errors.As(err, &apiErr) {
			t.Fatalf("CountCourses() error = %v; want *academy.APIError", err)
		}
		if apiErr.Code != http.StatusBadGateway {
			t.Errorf("APIError.Code = %d; want 502", apiErr.Code)
		}
	})

	t.Run("transport failure surfaces as url.Error", func(t *testing.T) {
		client, srv := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		srv.Close() // refuse connections

		_, err := client.Courses(context.Background())
		var urlErr *url.Error
		if !errors.As(err, &urlErr) {
			t.Fatalf("Courses() error = %v; want *url.Error", err)
		}
	})
}

func TestClientCreateRegistration(t *testing.T) {
	var got payment.Registration
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/registrations" {
			t.Errorf("%s %s; want POST /v1/registrations", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decoding body: %v", err)
		}
		writeEnvelope(t, w, 200, "Created", nil)
	}))

	reg := payment.Registration{
		StudentID:        "s1",
		CourseID:         "c1",
		FeePaid:          150000,
		RegistrationDate: time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC),
		PaymentStatus:    true,
		TransactionID:    "14401234",
	}
	if err := client.CreateRegistration(context.Background(), reg); err != nil {
		t.Fatalf("CreateRegistration() error = %v", err)
	}
	if got != reg {
		t.Errorf("backend received %+v; want %+v", got, reg)
	}
}

func TestClientQueries(t *testing.T) {
	t.Run("search accounts", func(t *testing.T) {
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if name := r.URL.Query().Get("name"); name != "Trần" {
				t.Errorf("name = %q", name)
			}
			writeEnvelope(t, w, 200, "OK", []academy.Account{{ID: "u1", FullName: "Trần Thanh Vũ"}})
		}))

		accts, err := client.SearchAccounts(context.Background(), "Trần")
		if err != nil {
			t.Fatalf("SearchAccounts() error = %v", err)
		}
		if len(accts) != 1 || accts[0].ID != "u1" {
			t.Errorf("SearchAccounts() = %+v", accts)
		}
	})

	t.Run("revenue between months", func(t *testing.T) {
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			want := url.Values{"startYear": {"2024"}, "startMonth": {"1"}, "endYear": {"2024"}, "endMonth": {"6"}}
			for key := range want {
				if q.Get(key) != want.Get(key) {
					t.Errorf("%s = %q; want %q", key, q.Get(key), want.Get(key))
				}
			}
			writeEnvelope(t, w, 200, "OK", map[string]float64{"2024-01": 1200000, "2024-02": 450000})
		}))

		rev, err := client.RevenueBetweenMonths(context.Background(), 2024, 1, 2024, 6)
		if err != nil {
			t.Fatalf("RevenueBetweenMonths() error = %v", err)
		}
		if rev["2024-01"] != 1200000 {
			t.Errorf("RevenueBetweenMonths()[2024-01] = %v", rev["2024-01"])
		}
	})

	t.Run("course revenue period formats dates", func(t *testing.T) {
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			if q.Get("startDate") != "2024-01-01" || q.Get("endDate") != "2024-06-30" {
				t.Errorf("dates = %q .. %q", q.Get("startDate"), q.Get("endDate"))
			}
			writeEnvelope(t, w, 200, "OK", []academy.CourseRevenue{})
		}))

		start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		end := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)
		if _, err := client.CourseRevenueInPeriod(context.Background(), start, end); err != nil {
			t.Fatalf("CourseRevenueInPeriod() error = %v", err)
		}
	})
}

func TestClientUploadLesson(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parsing multipart form: %v", err)
		}
		if got := r.FormValue("courseId"); got != "c1" {
			t.Errorf("courseId = %q", got)
		}
		if got := r.FormValue("lessonOrder"); got != "3" {
			t.Errorf("lessonOrder = %q", got)
		}
		for _, field := range []string{"videoFile", "imageFile"} {
			if _, _, err := r.FormFile(field); err != nil {
				t.Errorf("missing file %s: %v", field, err)
			}
		}
		writeEnvelope(t, w, 200, "Created", nil)
	}))

	nl := academy.NewLesson{
		CourseID:    "c1",
		Title:       "Net play",
		Content:     "Drills for net kills",
		LessonOrder: 3,
		VideoFile:   academy.Upload{Filename: "lesson.mp4", Content: strings.NewReader("video-bytes")},
		ImageFile:   academy.Upload{Filename: "cover.png", Content: strings.NewReader("image-bytes")},
	}
	if err := client.UploadLesson(context.Background(), nl); err != nil {
		t.Fatalf("UploadLesson() error = %v", err)
	}

	nl.VideoFile.Content = nil
	if err := client.UploadLesson(context.Background(), nl); err == nil {
		t.Error("UploadLesson() with missing video: error = nil")
	}
}

func TestClientStats(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/registrations/total-fee-pay":
			writeEnvelope(t, w, 200, "OK", 2750000)
		case "/auth/count":
			writeEnvelope(t, w, 200, "OK", 42)
		case "/courses/count":
			writeEnvelope(t, w, 200, "OK", 7)
		default:
			t.Errorf("unexpected path %q", r.URL.Path)
		}
	}))

	stats, err := client.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	want := academy.Stats{TotalRevenue: 2750000, TotalStudents: 42, TotalCourses: 7}
	if stats != want {
		t.Errorf("Stats() = %+v; want %+v", stats, want)
	}
}
