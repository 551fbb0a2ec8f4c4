package academysvc

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/tdvu/courtside/core"
	"github.com/tdvu/courtside/core/academy"
	"github.com/tdvu/courtside/core/payment"
)

// Client talks to the remote platform backend. It is the only place that
// knows the backend's paths and response envelope.
type Client struct {
	baseURL string
	http    *http.Client
}

var (
	_ academy.Client    = (*Client)(nil)
	_ payment.Registrar = (*Client)(nil)
)

func NewClient(conf *core.Config) *Client {
	return &Client{
		baseURL: strings.TrimRight(conf.Academy.BaseURL, "/"),
		http:    &http.Client{Timeout: conf.Academy.Timeout},
	}
}

// envelope is the backend's uniform response shape.
type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// do sends one request and decodes the envelope into out (when non-nil).
// Transport failures come back as *url.Error; an envelope or HTTP status
// reporting failure becomes *academy.APIError.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	var rdr io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "marshalling request body")
		}
		rdr = bytes.NewReader(buf)
	}

	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, reqURL, rdr)
	if err != nil {
		return errors.Wrap(err, "building request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, out)
}

func (c *Client) send(req *http.Request, out interface{}) error {
	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	var env envelope
	if err = json.NewDecoder(res.Body).Decode(&env); err != nil {
		if res.StatusCode < 200 || res.StatusCode >= 300 {
			return &academy.APIError{Code: res.StatusCode, Message: http.StatusText(res.StatusCode)}
		}
		return errors.Wrap(err, "decoding response envelope")
	}

	code := env.Code
	if code == 0 {
		code = res.StatusCode
	}
	if code != http.StatusOK && (code < 200 || code >= 300) {
		return &academy.APIError{Code: code, Message: env.Message}
	}

	if out != nil && len(env.Data) > 0 {
		if err = json.Unmarshal(env.Data, out); err != nil {
			return errors.Wrap(err, "decoding response data")
		}
	}
	return nil
}

// auth & accounts

func (c *Client) Login(ctx context.Context, username, password string) (academy.Account, error) {
	body := map[string]string{"username": username, "password": password}
	var acct academy.Account
	if err := c.do(ctx, http.MethodPost, "/auth/login", nil, body, &acct); err != nil {
		return academy.Account{}, err
	}
	return acct, nil
}

func (c *Client) Register(ctx context.Context, na academy.NewAccount) error {
	return c.do(ctx, http.MethodPost, "/auth/register", nil, na, nil)
}

func (c *Client) CountAccounts(ctx context.Context) (int, error) {
	var count int
	if err := c.do(ctx, http.MethodGet, "/auth/count", nil, nil, &count); err != nil {
		return 0, err
	}
	return count, nil
}

func (c *Client) Accounts(ctx context.Context) ([]academy.Account, error) {
	var accts []academy.Account
	if err := c.do(ctx, http.MethodGet, "/auth/users", nil, nil, &accts); err != nil {
		return nil, err
	}
	return accts, nil
}

func (c *Client) SearchAccounts(ctx context.Context, name string) ([]academy.Account, error) {
	var accts []academy.Account
	query := url.Values{"name": {name}}
	if err := c.do(ctx, http.MethodGet, "/auth/users/search", query, nil, &accts); err != nil {
		return nil, err
	}
	return accts, nil
}

func (c *Client) AccountByUsername(ctx context.Context, username string) (academy.Account, error) {
	var acct academy.Account
	if err := c.do(ctx, http.MethodGet, "/auth/users/username/"+url.PathEscape(username), nil, nil, &acct); err != nil {
		return academy.Account{}, err
	}
	return acct, nil
}

func (c *Client) UpdateAccount(ctx context.Context, id string, ua academy.UpdateAccount) error {
	return c.do(ctx, http.MethodPut, "/auth/users/"+url.PathEscape(id), nil, ua, nil)
}

func (c *Client) DeleteAccount(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/auth/users/"+url.PathEscape(id), nil, nil, nil)
}

func (c *Client) ChangePassword(ctx context.Context, id, newPassword string) error {
	body := map[string]string{"newPassword": newPassword}
	return c.do(ctx, http.MethodPut, "/auth/users/"+url.PathEscape(id)+"/password", nil, body, nil)
}

// courses

func (c *Client) Courses(ctx context.Context) ([]academy.Course, error) {
	var courses []academy.Course
	if err := c.do(ctx, http.MethodGet, "/courses/all", nil, nil, &courses); err != nil {
		return nil, err
	}
	return courses, nil
}

func (c *Client) Course(ctx context.Context, id string) (academy.Course, error) {
	var course academy.Course
	if err := c.do(ctx, http.MethodGet, "/courses/"+url.PathEscape(id), nil, nil, &course); err != nil {
		return academy.Course{}, err
	}
	return course, nil
}

func (c *Client) CountCourses(ctx context.Context) (int, error) {
	var count int
	if err := c.do(ctx, http.MethodGet, "/courses/count", nil, nil, &count); err != nil {
		return 0, err
	}
	return count, nil
}

func (c *Client) SearchCourses(ctx context.Context, keyword string) ([]academy.Course, error) {
	var courses []academy.Course
	query := url.Values{"keyword": {keyword}}
	if err := c.do(ctx, http.MethodGet, "/courses/search-course", query, nil, &courses); err != nil {
		return nil, err
	}
	return courses, nil
}

func (c *Client) CreateCourse(ctx context.Context, nc academy.NewCourse) (academy.Course, error) {
	var course academy.Course
	if err := c.do(ctx, http.MethodPost, "/courses", nil, nc, &course); err != nil {
		return academy.Course{}, err
	}
	return course, nil
}

func (c *Client) DeleteCourse(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/courses/"+url.PathEscape(id), nil, nil, nil)
}

func (c *Client) HighestRatedCourses(ctx context.Context) ([]academy.Course, error) {
	var courses []academy.Course
	if err := c.do(ctx, http.MethodGet, "/courses/highest-rated-courses-all", nil, nil, &courses); err != nil {
		return nil, err
	}
	return courses, nil
}

func (c *Client) HighestPurchasedCourses(ctx context.Context) ([]academy.Course, error) {
	var courses []academy.Course
	if err := c.do(ctx, http.MethodGet, "/courses/highest-purchase-count", nil, nil, &courses); err != nil {
		return nil, err
	}
	return courses, nil
}

func (c *Client) CourseRevenueInPeriod(ctx context.Context, start, end time.Time) ([]academy.CourseRevenue, error) {
	var rows []academy.CourseRevenue
	query := url.Values{
		"startDate": {start.Format("2006-01-02")},
		"endDate":   {end.Format("2006-01-02")},
	}
	if err := c.do(ctx, http.MethodGet, "/courses/revenue-by-course-in-period", query, nil, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// lessons

func (c *Client) Lesson(ctx context.Context, id string) (academy.Lesson, error) {
	var lesson academy.Lesson
	if err := c.do(ctx, http.MethodGet, "/lessons/"+url.PathEscape(id), nil, nil, &lesson); err != nil {
		return academy.Lesson{}, err
	}
	return lesson, nil
}

func (c *Client) CourseLessons(ctx context.Context, courseID string) ([]academy.Lesson, error) {
	var lessons []academy.Lesson
	if err := c.do(ctx, http.MethodGet, "/lessons/course/"+url.PathEscape(courseID), nil, nil, &lessons); err != nil {
		return nil, err
	}
	return lessons, nil
}

// UploadLesson sends the lesson fields plus its video and image as multipart form data.
func (c *Client) UploadLesson(ctx context.Context, nl academy.NewLesson) error {
	var buff bytes.Buffer
	w := multipart.NewWriter(&buff)

	fields := map[string]string{
		"courseId":    nl.CourseID,
		"title":       nl.Title,
		"content":     nl.Content,
		"lessonOrder": strconv.Itoa(nl.LessonOrder),
	}
	for name, value := range fields {
		if err := w.WriteField(name, value); err != nil {
			return errors.Wrapf(err, "writing field %s", name)
		}
	}
	files := []struct {
		field  string
		upload academy.Upload
	}{
		{"videoFile", nl.VideoFile},
		{"imageFile", nl.ImageFile},
	}
	for _, f := range files {
		if f.upload.Content == nil {
			return errors.Errorf("missing %s", f.field)
		}
		part, err := w.CreateFormFile(f.field, f.upload.Filename)
		if err != nil {
			return errors.Wrapf(err, "creating part %s", f.field)
		}
		if _, err = io.Copy(part, f.upload.Content); err != nil {
			return errors.Wrapf(err, "copying %s", f.field)
		}
	}
	if err := w.Close(); err != nil {
		return errors.Wrap(err, "closing multipart writer")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/lessons/upload", &buff)
	if err != nil {
		return errors.Wrap(err, "building request")
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	return c.send(req, nil)
}

// feedbacks

func (c *Client) CourseFeedbacks(ctx context.Context, courseID string) ([]academy.Feedback, error) {
	var fbs []academy.Feedback
	if err := c.do(ctx, http.MethodGet, "/feedbacks/course/"+url.PathEscape(courseID), nil, nil, &fbs); err != nil {
		return nil, err
	}
	return fbs, nil
}

func (c *Client) AddFeedback(ctx context.Context, nf academy.NewFeedback) error {
	return c.do(ctx, http.MethodPost, "/feedbacks", nil, nf, nil)
}

// registrations

// CreateRegistration performs the post-payment registration write.
// Errors keep their transport/envelope distinction so the payment reconciler
// can classify them.
func (c *Client) CreateRegistration(ctx context.Context, reg payment.Registration) error {
	return c.do(ctx, http.MethodPost, "/v1/registrations", nil, reg, nil)
}

func (c *Client) TotalFeePaid(ctx context.Context) (float64, error) {
	var total float64
	if err := c.do(ctx, http.MethodGet, "/v1/registrations/total-fee-pay", nil, nil, &total); err != nil {
		return 0, err
	}
	return total, nil
}

func (c *Client) RevenueBetweenMonths(ctx context.Context, startYear, startMonth, endYear, endMonth int) (academy.MonthlyRevenue, error) {
	var rev academy.MonthlyRevenue
	query := url.Values{
		"startYear":  {strconv.Itoa(startYear)},
		"startMonth": {strconv.Itoa(startMonth)},
		"endYear":    {strconv.Itoa(endYear)},
		"endMonth":   {strconv.Itoa(endMonth)},
	}
	if err := c.do(ctx, http.MethodGet, "/v1/registrations/revenue-between-months", query, nil, &rev); err != nil {
		return nil, err
	}
	return rev, nil
}

// Stats fetches the three platform-wide totals in one call.
func (c *Client) Stats(ctx context.Context) (academy.Stats, error) {
	total, err := c.TotalFeePaid(ctx)
	if err != nil {
		return academy.Stats{}, errors.Wrap(err, "fetching total fees paid")
	}
	students, err := c.CountAccounts(ctx)
	if err != nil {
		return academy.Stats{}, errors.Wrap(err, "counting accounts")
	}
	courses, err := c.CountCourses(ctx)
	if err != nil {
		return academy.Stats{}, errors.Wrap(err, "counting courses")
	}
	return academy.Stats{TotalRevenue: total, TotalStudents: students, TotalCourses: courses}, nil
}
