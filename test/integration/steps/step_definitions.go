//go:build integration

// Package steps provides step definitions for BDD integration tests.
package steps

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cucumber/godog"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/finance-tracker/summary/config"
	"github.com/finance-tracker/summary/internal/infra/db"
	"github.com/finance-tracker/summary/internal/infra/dependency"
	"github.com/finance-tracker/summary/internal/infra/store"
	"github.com/finance-tracker/summary/internal/integration/persistence/model"
	"github.com/finance-tracker/summary/test/integration/mock"
)

const testJWTSecret = "test-jwt-secret-key-for-testing-purposes"

type testContext struct {
	uri         string
	headers     map[string]string
	client      *http.Client
	response    *response
	previous    *response
	db          *mock.Db
	timeMock    *mock.Time
	accessToken string
}

type response struct {
	status int
	body   any
}

var serverInit sync.Once
var testDB *mock.Db
var testTime *mock.Time
var testServerPort int
var portInit sync.Once

func initializePort() {
	portInit.Do(func() {
		testServerPort = findAvailablePort()
		_ = os.Setenv("SERVER_PORT", strconv.Itoa(testServerPort))
		_ = os.Setenv("ENV", "test")
		_ = os.Setenv("JWT_SECRET", testJWTSecret)
		_ = os.Setenv("STORE_DRIVER", config.DriverSQLite)
		testTime = mock.NewTime()
	})
}

// InitializeTestSuite sets up resources before any scenarios run.
func InitializeTestSuite(ctx *godog.TestSuiteContext) {
	ctx.BeforeSuite(func() {
		gin.SetMode(gin.TestMode)
	})
}

// InitializeScenario registers all step definitions.
func InitializeScenario(ctx *godog.ScenarioContext) {
	initializePort()

	test := &testContext{
		uri:      fmt.Sprintf("http://localhost:%d", testServerPort),
		client:   &http.Client{Timeout: 10 * time.Second},
		timeMock: testTime,
		db: mock.NewDb(map[string]any{
			"incomes":  &model.IncomeModel{},
			"expenses": &model.ExpenseModel{},
		}),
	}

	testDB = test.db

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		return ctx, test.before()
	})

	// Background steps
	ctx.Given(`^the API server is running$`, test.theAPIServerIsRunning)
	ctx.Given(`^the current time is "([^"]*)"$`, test.theCurrentTimeIs)

	// Auth steps
	ctx.Given(`^I am logged in as user "([^"]*)"$`, test.iAmLoggedInAsUser)
	ctx.Given(`^I am logged in with an expired token as user "([^"]*)"$`, test.iAmLoggedInWithAnExpiredTokenAsUser)

	// Data setup steps
	ctx.Given(`^the user "([^"]*)" has the incomes:$`, test.theUserHasTheIncomes)
	ctx.Given(`^the user "([^"]*)" has the expenses:$`, test.theUserHasTheExpenses)
	ctx.Given(`^the user "([^"]*)" has (\d+) incomes of "([^"]*)" in the last (\d+) days$`, test.theUserHasRecentIncomes)
	ctx.Given(`^the user "([^"]*)" has (\d+) expenses of "([^"]*)" in the last (\d+) days$`, test.theUserHasRecentExpenses)
	ctx.Given(`^the "([^"]*)" table is unavailable$`, test.theTableIsUnavailable)

	// Header steps
	ctx.Given(`^the header contains the key "([^"]*)" with "([^"]*)"$`, test.theHeaderContainsTheKeyWith)

	// Request steps
	ctx.When(`^I send a "([^"]*)" request to "([^"]*)"$`, test.iSendARequestTo)
	ctx.When(`^I send a "([^"]*)" request to "([^"]*)" twice$`, test.iSendARequestToTwice)

	// Response assertion steps
	ctx.Then(`^the response status should be (\d+)$`, test.theResponseStatusShouldBe)
	ctx.Then(`^the response should be JSON$`, test.theResponseShouldBeJSON)
	ctx.Then(`^the response should contain "([^"]*)"$`, test.theResponseShouldContain)
	ctx.Then(`^the response should not contain "([^"]*)"$`, test.theResponseShouldNotContain)
	ctx.Then(`^the response field "([^"]*)" should be "([^"]*)"$`, test.theResponseFieldShouldBe)
	ctx.Then(`^the response field "([^"]*)" should exist$`, test.theResponseFieldShouldExist)
	ctx.Then(`^the response field "([^"]*)" should have (\d+) items$`, test.theResponseFieldShouldHaveItems)
	ctx.Then(`^the response list "([^"]*)" should be sorted by "([^"]*)" descending$`, test.theResponseListShouldBeSortedDescending)
	ctx.Then(`^the response field "([^"]*)" should equal the sum of "([^"]*)" in "([^"]*)"$`, test.theResponseFieldShouldEqualTheSum)
	ctx.Then(`^both responses should be identical$`, test.bothResponsesShouldBeIdentical)

	// Database assertion steps
	ctx.Then(`^the db should contain (\d+) objects in the "([^"]*)" table$`, test.theDbShouldContainObjectsInTheTable)
}

func findAvailablePort() int {
	listener, err := net.Listen("tcp", ":0")
	if err != nil {
		panic(err)
	}
	defer listener.Close()
	return listener.Addr().(*net.TCPAddr).Port
}

func (t *testContext) before() error {
	t.headers = make(map[string]string)
	t.accessToken = ""
	t.response = nil
	t.previous = nil
	t.timeMock.SetCurrentTime(time.Now().UTC())

	if t.db != nil {
		if err := t.db.ClearDB(); err != nil {
			return err
		}
	}
	return mock.ClearRedis(mock.NewRedis())
}

func (t *testContext) startServer() {
	serverInit.Do(func() {
		go func() {
			cfg := config.Load()

			backend, err := store.NewGormBackend(db.NewDatabase(testDB.DbConn, config.DriverSQLite), config.DriverSQLite, false)
			if err != nil {
				panic(err)
			}

			injector := dependency.NewInjector(cfg, backend, mock.NewRedis(), testTime.Now)
			engine := injector.Router.Setup("test")

			server := &http.Server{
				Addr:    fmt.Sprintf(":%d", testServerPort),
				Handler: engine,
			}

			_ = server.ListenAndServe()
		}()
	})

	// Wait for server to be ready
	for i := 0; i < 50; i++ {
		resp, err := http.Get(t.uri + "/health")
		if err == nil && resp.StatusCode == http.StatusOK {
			resp.Body.Close()
			return
		}
		time.Sleep(100 * time.Millisecond)
	}
}

func (t *testContext) theAPIServerIsRunning() error {
	t.startServer()
	return nil
}

func (t *testContext) theCurrentTimeIs(value string) error {
	now, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return fmt.Errorf("invalid time %q: %w", value, err)
	}
	t.timeMock.SetCurrentTime(now.UTC())
	return nil
}

func (t *testContext) signToken(userID string, expiresIn time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id":    userID,
		"email":      "user@example.com",
		"token_type": "access",
		"iss":        "finance-tracker",
		"sub":        userID,
		"exp":        jwt.NewNumericDate(now.Add(expiresIn)),
		"iat":        jwt.NewNumericDate(now.Add(-time.Hour)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWTSecret))
}

func (t *testContext) iAmLoggedInAsUser(userID string) error {
	token, err := t.signToken(userID, 15*time.Minute)
	if err != nil {
		return fmt.Errorf("failed to sign token: %w", err)
	}
	t.accessToken = token
	return nil
}

func (t *testContext) iAmLoggedInWithAnExpiredTokenAsUser(userID string) error {
	token, err := t.signToken(userID, -time.Minute)
	if err != nil {
		return fmt.Errorf("failed to sign token: %w", err)
	}
	t.accessToken = token
	return nil
}

// seedRow is one row of an incomes/expenses data table.
type seedRow struct {
	id      uuid.UUID
	amount  decimal.Decimal
	label   string
	daysAgo float64
}

func parseSeedTable(table *godog.Table, labelColumn string) ([]seedRow, error) {
	if len(table.Rows) < 2 {
		return nil, errors.New("table needs a header and at least one row")
	}

	columns := map[string]int{}
	for i, cell := range table.Rows[0].Cells {
		columns[cell.Value] = i
	}
	for _, required := range []string{"amount", labelColumn, "days_ago"} {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("missing column %q", required)
		}
	}

	rows := make([]seedRow, 0, len(table.Rows)-1)
	for _, row := range table.Rows[1:] {
		amount, err := decimal.NewFromString(row.Cells[columns["amount"]].Value)
		if err != nil {
			return nil, fmt.Errorf("invalid amount: %w", err)
		}
		daysAgo, err := strconv.ParseFloat(row.Cells[columns["days_ago"]].Value, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid days_ago: %w", err)
		}

		id := uuid.New()
		if idx, ok := columns["id"]; ok {
			if id, err = uuid.Parse(row.Cells[idx].Value); err != nil {
				return nil, fmt.Errorf("invalid id: %w", err)
			}
		}

		rows = append(rows, seedRow{
			id:      id,
			amount:  amount,
			label:   row.Cells[columns[labelColumn]].Value,
			daysAgo: daysAgo,
		})
	}
	return rows, nil
}

func (t *testContext) dateFor(daysAgo float64) time.Time {
	return t.timeMock.Now().Add(-time.Duration(daysAgo * float64(24*time.Hour))).UTC().Truncate(time.Second)
}

func (t *testContext) theUserHasTheIncomes(userID string, table *godog.Table) error {
	rows, err := parseSeedTable(table, "source")
	if err != nil {
		return err
	}
	return t.seedIncomes(userID, rows)
}

func (t *testContext) theUserHasTheExpenses(userID string, table *godog.Table) error {
	rows, err := parseSeedTable(table, "category")
	if err != nil {
		return err
	}
	return t.seedExpenses(userID, rows)
}

// theUserHasRecentIncomes spreads count incomes evenly over the last days.
func (t *testContext) theUserHasRecentIncomes(userID string, count int, amount string, days int) error {
	rows, err := spreadRows("Salary", count, amount, days)
	if err != nil {
		return err
	}
	return t.seedIncomes(userID, rows)
}

func (t *testContext) theUserHasRecentExpenses(userID string, count int, amount string, days int) error {
	rows, err := spreadRows("Food", count, amount, days)
	if err != nil {
		return err
	}
	return t.seedExpenses(userID, rows)
}

func spreadRows(label string, count int, amount string, days int) ([]seedRow, error) {
	value, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}

	rows := make([]seedRow, 0, count)
	for i := 0; i < count; i++ {
		rows = append(rows, seedRow{
			id:      uuid.New(),
			amount:  value,
			label:   label,
			daysAgo: float64(days) * float64(i) / float64(count),
		})
	}
	return rows, nil
}

func (t *testContext) seedIncomes(userID string, rows []seedRow) error {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	for _, row := range rows {
		income := &model.IncomeModel{
			ID:        row.id,
			UserID:    uid,
			Source:    row.label,
			Amount:    row.amount,
			Date:      t.dateFor(row.daysAgo),
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := t.db.DbConn.Create(income).Error; err != nil {
			return fmt.Errorf("failed to create income: %w", err)
		}
	}
	return nil
}

func (t *testContext) seedExpenses(userID string, rows []seedRow) error {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	for _, row := range rows {
		expense := &model.ExpenseModel{
			ID:        row.id,
			UserID:    uid,
			Category:  row.label,
			Amount:    row.amount,
			Date:      t.dateFor(row.daysAgo),
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := t.db.DbConn.Create(expense).Error; err != nil {
			return fmt.Errorf("failed to create expense: %w", err)
		}
	}
	return nil
}

func (t *testContext) theTableIsUnavailable(table string) error {
	return t.db.DropTable(table)
}

func (t *testContext) theHeaderContainsTheKeyWith(key, value string) error {
	t.headers[key] = value
	return nil
}

func (t *testContext) iSendARequestTo(method, path string) error {
	return t.executeRequest(method, path, nil)
}

func (t *testContext) iSendARequestToTwice(method, path string) error {
	if err := t.executeRequest(method, path, nil); err != nil {
		return err
	}
	t.previous = t.response
	return t.executeRequest(method, path, nil)
}

func (t *testContext) executeRequest(method, path string, payload []byte) error {
	var req *http.Request
	var err error

	url := t.uri + path

	if payload != nil {
		req, err = http.NewRequest(method, url, bytes.NewReader(payload))
	} else {
		req, err = http.NewRequest(method, url, nil)
	}
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")

	if t.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+t.accessToken)
	}

	for key, value := range t.headers {
		req.Header.Set(key, value)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	t.response = &response{
		status: resp.StatusCode,
	}

	var responseBody map[string]any
	if err := json.Unmarshal(bodyBytes, &responseBody); err != nil {
		t.response.body = string(bodyBytes)
	} else {
		t.response.body = responseBody
	}

	return nil
}

func (t *testContext) responseObject() (map[string]any, error) {
	if t.response == nil {
		return nil, errors.New("no response received")
	}
	body, ok := t.response.body.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("response is not a JSON object: %v", t.response.body)
	}
	return body, nil
}

func (t *testContext) theResponseStatusShouldBe(expectedStatus int) error {
	if t.response == nil {
		return errors.New("no response received")
	}
	if t.response.status != expectedStatus {
		return fmt.Errorf("expected status %d, got %d (body: %v)", expectedStatus, t.response.status, t.response.body)
	}
	return nil
}

func (t *testContext) theResponseShouldBeJSON() error {
	_, err := t.responseObject()
	return err
}

func (t *testContext) theResponseShouldContain(field string) error {
	body, err := t.responseObject()
	if err != nil {
		return err
	}
	if _, exists := body[field]; !exists {
		return fmt.Errorf("response does not contain field '%s': %v", field, body)
	}
	return nil
}

func (t *testContext) theResponseShouldNotContain(field string) error {
	body, err := t.responseObject()
	if err != nil {
		return err
	}
	if _, exists := body[field]; exists {
		return fmt.Errorf("response should not contain field '%s': %v", field, body)
	}
	return nil
}

func (t *testContext) theResponseFieldShouldBe(field, expectedValue string) error {
	body, err := t.responseObject()
	if err != nil {
		return err
	}

	value := getFieldValue(body, field)
	if value == nil {
		return fmt.Errorf("field '%s' not found in response: %v", field, body)
	}

	actualValue := fmt.Sprintf("%v", value)
	if actualValue != expectedValue {
		return fmt.Errorf("field '%s' expected '%s', got '%s'", field, expectedValue, actualValue)
	}
	return nil
}

func (t *testContext) theResponseFieldShouldExist(field string) error {
	body, err := t.responseObject()
	if err != nil {
		return err
	}

	if getFieldValue(body, field) == nil {
		return fmt.Errorf("field '%s' not found in response: %v", field, body)
	}
	return nil
}

func (t *testContext) theResponseFieldShouldHaveItems(field string, count int) error {
	body, err := t.responseObject()
	if err != nil {
		return err
	}

	items, ok := getFieldValue(body, field).([]any)
	if !ok {
		return fmt.Errorf("field '%s' is not a list: %v", field, getFieldValue(body, field))
	}
	if len(items) != count {
		return fmt.Errorf("field '%s' expected %d items, got %d", field, count, len(items))
	}
	return nil
}

func (t *testContext) theResponseListShouldBeSortedDescending(field, key string) error {
	body, err := t.responseObject()
	if err != nil {
		return err
	}

	items, ok := getFieldValue(body, field).([]any)
	if !ok {
		return fmt.Errorf("field '%s' is not a list", field)
	}

	values := make([]string, 0, len(items))
	for i, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			return fmt.Errorf("item %d of '%s' is not an object", i, field)
		}
		value, ok := obj[key].(string)
		if !ok {
			return fmt.Errorf("item %d of '%s' has no string '%s'", i, field, key)
		}
		values = append(values, value)
	}

	// RFC3339 UTC timestamps sort lexically.
	if !sort.SliceIsSorted(values, func(i, j int) bool { return values[i] > values[j] }) {
		return fmt.Errorf("'%s' is not sorted by '%s' descending: %v", field, key, values)
	}
	return nil
}

func (t *testContext) theResponseFieldShouldEqualTheSum(field, key, list string) error {
	body, err := t.responseObject()
	if err != nil {
		return err
	}

	total, ok := getFieldValue(body, field).(float64)
	if !ok {
		return fmt.Errorf("field '%s' is not a number", field)
	}

	items, ok := getFieldValue(body, list).([]any)
	if !ok {
		return fmt.Errorf("field '%s' is not a list", list)
	}

	sum := decimal.Zero
	for _, item := range items {
		value, _ := item.(map[string]any)[key].(float64)
		sum = sum.Add(decimal.NewFromFloat(value))
	}

	if !sum.Equal(decimal.NewFromFloat(total)) {
		return fmt.Errorf("field '%s' is %v but the items of '%s' sum to %s", field, total, list, sum)
	}
	return nil
}

func (t *testContext) bothResponsesShouldBeIdentical() error {
	if t.previous == nil || t.response == nil {
		return errors.New("no previous response recorded")
	}
	if t.previous.status != t.response.status {
		return fmt.Errorf("statuses differ: %d and %d", t.previous.status, t.response.status)
	}
	previous, current := mustJSON(t.previous.body), mustJSON(t.response.body)
	if current != previous {
		return fmt.Errorf("responses differ:\n%s\n%s", previous, current)
	}
	return nil
}

func (t *testContext) theDbShouldContainObjectsInTheTable(quantity int, table string) error {
	if entity, ok := t.db.GetModel(table); ok {
		entityType := reflect.TypeOf(entity).Elem()
		entitySlice := reflect.MakeSlice(reflect.SliceOf(entityType), 0, 0)
		entitySlicePtr := reflect.New(entitySlice.Type())
		entitySlicePtr.Elem().Set(entitySlice)

		result := t.db.DbConn.Find(entitySlicePtr.Interface())
		if result.Error != nil {
			return result.Error
		}

		count := entitySlicePtr.Elem().Len()
		if count != quantity {
			return fmt.Errorf("expected %d objects in '%s', got %d", quantity, table, count)
		}
		return nil
	}
	return fmt.Errorf("table '%s' not found in models", table)
}

func mustJSON(value any) string {
	out, _ := json.Marshal(value)
	return string(out)
}

func getFieldValue(object any, dotSeparatedField string) any {
	if object == nil {
		return nil
	}

	var objectMap map[string]any
	switch v := object.(type) {
	case map[string]any:
		objectMap = v
	default:
		objectJSON, _ := json.Marshal(object)
		if err := json.Unmarshal(objectJSON, &objectMap); err != nil {
			return nil
		}
	}

	fields := strings.Split(dotSeparatedField, ".")
	var field any = objectMap

	for _, currentField := range fields {
		if field == nil {
			return nil
		}

		if i, err := strconv.Atoi(currentField); err == nil {
			if arr, ok := field.([]any); ok && i < len(arr) {
				field = arr[i]
			} else {
				return nil
			}
		} else {
			if m, ok := field.(map[string]any); ok {
				field = m[currentField]
			} else {
				return nil
			}
		}
	}

	return field
}
