package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/PixelPath7/vive-sano/internal/auth"
	"github.com/PixelPath7/vive-sano/internal/db"
	"github.com/PixelPath7/vive-sano/internal/handlers"
	"github.com/PixelPath7/vive-sano/internal/models"
	"github.com/PixelPath7/vive-sano/internal/notifier"
	"github.com/PixelPath7/vive-sano/internal/web"
)

const testSessionSecret = "test-secret-key"

func setupTestRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	gin.SetMode(gin.TestMode)

	// Each test gets its own in-memory SQLite database
	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=1", name)
	testDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		panic("failed to connect test database: " + err.Error())
	}

	sqlDB, err := testDB.DB()
	if err != nil {
		panic("failed to get sql.DB: " + err.Error())
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.Migrate(testDB); err != nil {
		panic("failed to auto-migrate models: " + err.Error())
	}

	originalDB := db.DB
	db.SetTestDB(testDB)
	notifier.SetChannels()

	r := gin.New()
	r.Use(gin.Recovery())
	r.SetHTMLTemplate(web.Templates())

	store := cookie.NewStore([]byte(testSessionSecret))
	r.Use(sessions.Sessions(auth.SessionName, store))

	handlers.RegisterRoutes(r)

	t.Cleanup(func() {
		db.SetTestDB(originalDB)
		sqlDB.Close()
	})

	return r, testDB
}

func createJSONRequest(method, path string, body interface{}) *http.Request {
	var reqBody []byte
	if body != nil {
		reqBody, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, path, bytes.NewBuffer(reqBody))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func createFormRequest(form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

// sessionCookie builds a signed session cookie holding userID, the same
// way the login callback does.
func sessionCookie(userID uint) string {
	tempW := httptest.NewRecorder()
	tempC, _ := gin.CreateTestContext(tempW)
	tempC.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	store := cookie.NewStore([]byte(testSessionSecret))
	sessions.Sessions(auth.SessionName, store)(tempC)

	session := sessions.Default(tempC)
	session.Set(auth.SessionUserKey, userID)
	session.Save()

	return strings.SplitN(tempW.Header().Get("Set-Cookie"), ";", 2)[0]
}

func performAuthenticatedRequest(router *gin.Engine, method, path string, body interface{}, userID *uint) *httptest.ResponseRecorder {
	recorder := httptest.NewRecorder()
	req := createJSONRequest(method, path, body)
	if userID != nil {
		req.Header.Set("Cookie", sessionCookie(*userID))
	}
	router.ServeHTTP(recorder, req)
	return recorder
}

func seedUser(t *testing.T, testDB *gorm.DB, subject string, staff bool) models.User {
	t.Helper()
	user := models.User{Subject: subject, Username: subject, IsStaff: staff}
	if err := testDB.Create(&user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func seedProduct(t *testing.T, testDB *gorm.DB, name string, price int64, stock int, category string) models.Product {
	t.Helper()
	product := models.Product{Name: name, Price: decimal.NewFromInt(price), Stock: stock, Category: category}
	if err := testDB.Create(&product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return product
}

func seedClient(t *testing.T, testDB *gorm.DB, userID *uint, email string) models.Client {
	t.Helper()
	client := models.Client{UserID: userID, Name: "Ana", Surname: "Rojas", Email: email, Phone: "56912345678"}
	if err := testDB.Create(&client).Error; err != nil {
		t.Fatalf("seed client: %v", err)
	}
	return client
}

func decodeBody(t *testing.T, recorder *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(recorder.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body %q: %v", recorder.Body.String(), err)
	}
	return body
}
