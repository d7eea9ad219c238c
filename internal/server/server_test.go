package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"barbari/internal/app"
	"barbari/pkg/auth"
	"barbari/pkg/domain"
	"barbari/pkg/sms"
	"barbari/pkg/storage"
	"barbari/pkg/store"
)

type stubNotifier struct {
	result sms.Result
	calls  int
}

func (f *stubNotifier) Dispatch(context.Context, domain.NotificationRequest) sms.Result {
	f.calls++
	return f.result
}

type testEnv struct {
	srv      *httptest.Server
	store    *store.MemoryStore
	notifier *stubNotifier
	app      *app.App
}

func newTestEnv(t *testing.T, loginLimit int) *testEnv {
	t.Helper()
	mem := store.NewMemoryStore()
	notifier := &stubNotifier{result: sms.Result{Kind: sms.ResultSent, Status: 200}}
	sessions, err := store.NewJWTSessionStore("0123456789abcdef0123456789abcdef", time.Hour, "", store.NewMemoryTokenRevoker())
	if err != nil {
		t.Fatalf("new session store: %v", err)
	}
	a, err := app.New(app.Config{
		Store:    mem,
		Sessions: sessions,
		Notifier: notifier,
		Images:   storage.NewMemoryImageStore(),
	})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	redis := miniredis.RunT(t)
	s, err := New(Config{
		App:                     a,
		RedisAddr:               redis.Addr(),
		LoginRateLimitPerWindow: loginLimit,
	})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	srv := httptest.NewServer(s.Router())
	t.Cleanup(srv.Close)
	return &testEnv{srv: srv, store: mem, notifier: notifier, app: a}
}

func postJSON(t *testing.T, url string, payload any) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("post %s: %v", url, err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func validBookingPayload() map[string]string {
	return map[string]string{
		"full_name":    "علی رضایی",
		"phone":        "+98 912 345 6789",
		"origin":       "تهران",
		"destination":  "کرج",
		"service_type": "intercity",
	}
}

func TestSubmitBookingEndpoint(t *testing.T) {
	env := newTestEnv(t, 5)

	resp := postJSON(t, env.srv.URL+"/api/bookings", validBookingPayload())
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if body["success"] != true {
		t.Fatalf("expected success=true, got %v", body)
	}
	if _, hasWarning := body["warning"]; hasWarning {
		t.Fatalf("did not expect warning on sent notification: %v", body)
	}
	data := body["data"].(map[string]any)
	if data["phone"] != "09123456789" {
		t.Fatalf("expected normalized phone, got %v", data["phone"])
	}
	if env.notifier.calls != 1 {
		t.Fatalf("expected one dispatch, got %d", env.notifier.calls)
	}
}

func TestSubmitBookingValidationErrors(t *testing.T) {
	env := newTestEnv(t, 5)

	resp := postJSON(t, env.srv.URL+"/api/bookings", map[string]string{"phone": "08123456789"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if body["error"] != "validation_failed" {
		t.Fatalf("expected validation_failed, got %v", body)
	}
	details := body["details"].(map[string]any)
	if details["phone"] == nil || details["full_name"] == nil {
		t.Fatalf("expected field messages, got %v", details)
	}
	if env.notifier.calls != 0 {
		t.Fatalf("expected zero dispatches, got %d", env.notifier.calls)
	}
}

func TestSubmitBookingNotificationFailureStillCreated(t *testing.T) {
	env := newTestEnv(t, 5)
	env.notifier.result = sms.Result{Kind: sms.ResultRateLimited, Status: 429}

	resp := postJSON(t, env.srv.URL+"/api/bookings", validBookingPayload())
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201 despite notification failure, got %d", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if body["success"] != true {
		t.Fatalf("expected success=true, got %v", body)
	}
	if body["warning"] == nil {
		t.Fatalf("expected warning about notification, got %v", body)
	}
	bookings, _ := env.store.ListBookings(store.BookingListOptions{})
	if len(bookings) != 1 {
		t.Fatalf("expected booking persisted, got %d", len(bookings))
	}
}

func TestSubmitContactEndpoint(t *testing.T) {
	env := newTestEnv(t, 5)

	resp := postJSON(t, env.srv.URL+"/api/contact", map[string]string{
		"name":    "سارا",
		"phone":   "09123456789",
		"message": "سلام",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	messages, _ := env.store.ListContactMessages()
	if len(messages) != 1 || messages[0].IsRead {
		t.Fatalf("expected one unread message, got %+v", messages)
	}
}

func TestNotifyEndpointCORSPreflight(t *testing.T) {
	env := newTestEnv(t, 5)

	req, _ := http.NewRequest(http.MethodOptions, env.srv.URL+"/api/notify", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("preflight request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204 for preflight, got %d", resp.StatusCode)
	}
	if resp.Header.Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("expected permissive CORS header")
	}
	if env.notifier.calls != 0 {
		t.Fatalf("preflight must not dispatch, got %d calls", env.notifier.calls)
	}
}

func TestNotifyEndpointStatusMapping(t *testing.T) {
	cases := []struct {
		kind       sms.ResultKind
		gwStatus   int
		wantStatus int
	}{
		{sms.ResultSent, 200, http.StatusOK},
		{sms.ResultNotConfigured, 0, http.StatusInternalServerError},
		{sms.ResultAuthError, 401, http.StatusUnauthorized},
		{sms.ResultRateLimited, 429, http.StatusTooManyRequests},
		{sms.ResultGatewayError, 503, http.StatusServiceUnavailable},
		{sms.ResultTransportError, 0, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		env := newTestEnv(t, 5)
		env.notifier.result = sms.Result{Kind: tc.kind, Status: tc.gwStatus}
		resp := postJSON(t, env.srv.URL+"/api/notify", map[string]string{
			"name":        "علی",
			"phone":       "09123456789",
			"requestType": "باربری بین‌شهری",
		})
		resp.Body.Close()
		if resp.StatusCode != tc.wantStatus {
			t.Errorf("kind %s: expected %d, got %d", tc.kind, tc.wantStatus, resp.StatusCode)
		}
	}
}

func setupAndLogin(t *testing.T, env *testEnv) string {
	t.Helper()
	resp := postJSON(t, env.srv.URL+"/api/admin/setup", map[string]string{
		"email":    "admin@example.com",
		"password": "Str0ng#Password!",
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("setup expected 201, got %d", resp.StatusCode)
	}
	resp = postJSON(t, env.srv.URL+"/api/admin/login", map[string]string{
		"email":    "admin@example.com",
		"password": "Str0ng#Password!",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login expected 200, got %d", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	token, _ := body["token"].(string)
	if token == "" {
		t.Fatalf("expected session token, got %v", body)
	}
	return token
}

func authedRequest(t *testing.T, method, url, token string, payload any) *http.Response {
	t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, url, body)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	return resp
}

func TestAdminSetupLoginAndCRUD(t *testing.T) {
	env := newTestEnv(t, 10)
	token := setupAndLogin(t, env)

	// second setup attempt is refused
	resp := postJSON(t, env.srv.URL+"/api/admin/setup", map[string]string{
		"email":    "intruder@example.com",
		"password": "Str0ng#Password!",
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 on repeated setup, got %d", resp.StatusCode)
	}

	// unauthenticated admin API access
	reqResp, err := http.Get(env.srv.URL + "/api/admin/bookings")
	if err != nil {
		t.Fatalf("get bookings: %v", err)
	}
	reqResp.Body.Close()
	if reqResp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", reqResp.StatusCode)
	}

	// submit one booking publicly, then manage it
	postJSON(t, env.srv.URL+"/api/bookings", validBookingPayload()).Body.Close()

	listResp := authedRequest(t, http.MethodGet, env.srv.URL+"/api/admin/bookings", token, nil)
	if listResp.StatusCode != http.StatusOK {
		t.Fatalf("list bookings expected 200, got %d", listResp.StatusCode)
	}
	listBody := decodeBody(t, listResp)
	items := listBody["items"].([]any)
	if len(items) != 1 {
		t.Fatalf("expected one booking, got %d", len(items))
	}
	id := items[0].(map[string]any)["id"].(string)

	patchResp := authedRequest(t, http.MethodPatch, env.srv.URL+"/api/admin/bookings/"+id, token, map[string]string{"status": "confirmed"})
	if patchResp.StatusCode != http.StatusOK {
		t.Fatalf("patch booking expected 200, got %d", patchResp.StatusCode)
	}
	patched := decodeBody(t, patchResp)
	if patched["status"] != "confirmed" {
		t.Fatalf("expected confirmed, got %v", patched["status"])
	}

	badPatch := authedRequest(t, http.MethodPatch, env.srv.URL+"/api/admin/bookings/"+id, token, map[string]string{"status": "shipped"})
	badPatch.Body.Close()
	if badPatch.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown status, got %d", badPatch.StatusCode)
	}

	delResp := authedRequest(t, http.MethodDelete, env.srv.URL+"/api/admin/bookings/"+id, token, nil)
	delResp.Body.Close()
	if delResp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete expected 204, got %d", delResp.StatusCode)
	}

	// logout revokes the token
	logoutResp := authedRequest(t, http.MethodPost, env.srv.URL+"/api/admin/logout", token, nil)
	logoutResp.Body.Close()
	if logoutResp.StatusCode != http.StatusNoContent {
		t.Fatalf("logout expected 204, got %d", logoutResp.StatusCode)
	}
	afterResp := authedRequest(t, http.MethodGet, env.srv.URL+"/api/admin/me", token, nil)
	afterResp.Body.Close()
	if afterResp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 after logout, got %d", afterResp.StatusCode)
	}
}

func TestViewerCannotMutate(t *testing.T) {
	env := newTestEnv(t, 10)

	hash, err := auth.HashPassword("Str0ng#Password!")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	if err := env.store.SaveUser(domain.User{
		ID:           "viewer-1",
		Email:        "viewer@example.com",
		PasswordHash: hash,
		Role:         domain.RoleViewer,
		CreatedAt:    time.Now().UTC(),
	}); err != nil {
		t.Fatalf("save viewer: %v", err)
	}

	resp := postJSON(t, env.srv.URL+"/api/admin/login", map[string]string{
		"email":    "viewer@example.com",
		"password": "Str0ng#Password!",
	})
	body := decodeBody(t, resp)
	token := body["token"].(string)

	listResp := authedRequest(t, http.MethodGet, env.srv.URL+"/api/admin/messages", token, nil)
	listResp.Body.Close()
	if listResp.StatusCode != http.StatusOK {
		t.Fatalf("viewer should read, got %d", listResp.StatusCode)
	}

	delResp := authedRequest(t, http.MethodDelete, env.srv.URL+"/api/admin/bookings/some-id", token, nil)
	delResp.Body.Close()
	if delResp.StatusCode != http.StatusForbidden {
		t.Fatalf("viewer mutation expected 403, got %d", delResp.StatusCode)
	}
}

func TestAdminLoginRateLimit(t *testing.T) {
	env := newTestEnv(t, 1)

	payload := map[string]string{"email": "nobody@example.com", "password": "wrong"}
	resp1 := postJSON(t, env.srv.URL+"/api/admin/login", payload)
	resp1.Body.Close()
	if resp1.StatusCode != http.StatusUnauthorized {
		t.Fatalf("first attempt expected 401, got %d", resp1.StatusCode)
	}
	resp2 := postJSON(t, env.srv.URL+"/api/admin/login", payload)
	resp2.Body.Close()
	if resp2.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("second attempt expected 429, got %d", resp2.StatusCode)
	}
}

func TestPublicSubmissionsAreNotRateLimited(t *testing.T) {
	env := newTestEnv(t, 1)

	for i := 0; i < 5; i++ {
		payload := validBookingPayload()
		resp := postJSON(t, env.srv.URL+"/api/bookings", payload)
		resp.Body.Close()
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("submission %d expected 201, got %d", i, resp.StatusCode)
		}
	}
	// identical repeated submissions each create a record
	bookings, _ := env.store.ListBookings(store.BookingListOptions{})
	if len(bookings) != 5 {
		t.Fatalf("expected 5 bookings, got %d", len(bookings))
	}
}

func TestGalleryUploadAndPublicListing(t *testing.T) {
	env := newTestEnv(t, 10)
	token := setupAndLogin(t, env)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("title", "اسباب‌کشی منزل")
	_ = mw.WriteField("category", "residential")
	fw, err := mw.CreateFormFile("image", "photo.jpg")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	_, _ = fw.Write([]byte("jpeg-bytes"))
	mw.Close()

	req, _ := http.NewRequest(http.MethodPost, env.srv.URL+"/api/admin/gallery/upload", &buf)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		raw, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		t.Fatalf("upload expected 201, got %d: %s", resp.StatusCode, raw)
	}
	item := decodeBody(t, resp)
	id := item["id"].(string)
	if !strings.Contains(item["imageUrl"].(string), "gallery/"+id) {
		t.Fatalf("unexpected image url %v", item["imageUrl"])
	}

	pubResp, err := http.Get(env.srv.URL + "/api/gallery")
	if err != nil {
		t.Fatalf("get gallery: %v", err)
	}
	pubBody := decodeBody(t, pubResp)
	if int(pubBody["count"].(float64)) != 1 {
		t.Fatalf("expected one public item, got %v", pubBody)
	}

	// hide it, public list goes empty
	hide := authedRequest(t, http.MethodPatch, env.srv.URL+"/api/admin/gallery/"+id, token, map[string]bool{"is_active": false})
	hide.Body.Close()
	pubResp2, _ := http.Get(env.srv.URL + "/api/gallery")
	pubBody2 := decodeBody(t, pubResp2)
	if int(pubBody2["count"].(float64)) != 0 {
		t.Fatalf("expected empty public gallery, got %v", pubBody2)
	}
}

func TestGalleryUploadRejectsUnsupportedExtension(t *testing.T) {
	env := newTestEnv(t, 10)
	token := setupAndLogin(t, env)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("title", "بدافزار")
	fw, _ := mw.CreateFormFile("image", "evil.exe")
	_, _ = fw.Write([]byte("mz"))
	mw.Close()

	req, _ := http.NewRequest(http.MethodPost, env.srv.URL+"/api/admin/gallery/upload", &buf)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for .exe upload, got %d", resp.StatusCode)
	}
}

func TestBookingsExportCSV(t *testing.T) {
	env := newTestEnv(t, 10)
	token := setupAndLogin(t, env)
	postJSON(t, env.srv.URL+"/api/bookings", validBookingPayload()).Body.Close()

	resp := authedRequest(t, http.MethodGet, env.srv.URL+"/api/admin/bookings/export", token, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("export expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Fatalf("expected csv content type, got %q", ct)
	}
	raw, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(raw), "باربری بین‌شهری") {
		t.Fatalf("expected Persian service label in export, got %s", raw)
	}
}

func TestServicesAdminAndPublicFilter(t *testing.T) {
	env := newTestEnv(t, 10)
	token := setupAndLogin(t, env)

	createResp := authedRequest(t, http.MethodPost, env.srv.URL+"/api/admin/services", token, map[string]any{
		"title":    "وانت‌بار",
		"features": []string{"ارسال سریع"},
	})
	if createResp.StatusCode != http.StatusCreated {
		t.Fatalf("create service expected 201, got %d", createResp.StatusCode)
	}
	svc := decodeBody(t, createResp)
	id := svc["id"].(string)

	hide := authedRequest(t, http.MethodPatch, env.srv.URL+"/api/admin/services/"+id, token, map[string]any{"title": "وانت‌بار", "is_active": false})
	hide.Body.Close()
	if hide.StatusCode != http.StatusOK {
		t.Fatalf("patch service expected 200, got %d", hide.StatusCode)
	}

	pubResp, err := http.Get(env.srv.URL + "/api/services")
	if err != nil {
		t.Fatalf("get services: %v", err)
	}
	pubBody := decodeBody(t, pubResp)
	if int(pubBody["count"].(float64)) != 0 {
		t.Fatalf("expected inactive service hidden from public list, got %v", pubBody)
	}

	adminList := authedRequest(t, http.MethodGet, env.srv.URL+"/api/admin/services", token, nil)
	adminBody := decodeBody(t, adminList)
	if int(adminBody["count"].(float64)) != 1 {
		t.Fatalf("expected service visible to admin, got %v", adminBody)
	}
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t, 5)
	resp, err := http.Get(env.srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("healthz: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}
