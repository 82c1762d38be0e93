package tests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"

	. "github.com/njitshpe/shpe-app-sub007/apps/api/echo"
	"github.com/njitshpe/shpe-app-sub007/core"
	"github.com/njitshpe/shpe-app-sub007/core/checkin"
	"github.com/njitshpe/shpe-app-sub007/core/member"
	"github.com/njitshpe/shpe-app-sub007/core/notification"
	"github.com/njitshpe/shpe-app-sub007/services/email"
	"github.com/njitshpe/shpe-app-sub007/services/push"
	"github.com/njitshpe/shpe-app-sub007/tests"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type testEnv struct {
	t       *testing.T
	conf    *core.Config
	db      *sqlx.DB
	repos   testutil.Repos
	app     *Server
	signer  *checkin.Signer
	pusher  *pushsvc.ConsolePusher
	mailSvc *emailsvc.ConsoleServiceMock
	now     time.Time
}

func setup(t *testing.T) *testEnv {
	conf := testutil.NewConfig()
	logger := testutil.NewLogger()

	// set up DB & repos
	db := testutil.OpenDB(t)
	repos := testutil.NewRepos(db)

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	member.InitValidators(validate, translator)
	notification.InitValidators(validate, translator)
	core.ParseEmailTemplates(logger)

	// set up services
	env := &testEnv{
		t:       t,
		conf:    conf,
		db:      db,
		repos:   repos,
		pusher:  pushsvc.NewConsolePusherMock(logger),
		mailSvc: emailsvc.NewConsoleServiceMock(conf, logger),
		now:     time.Now(),
	}
	mbrSvc := member.NewService(repos.Members)
	notifSvc := notification.NewService(notification.Deps{
		Repo:     repos.Notifications,
		Members:  repos.Members,
		Events:   repos.Events,
		Pusher:   env.pusher,
		MailSvc:  env.mailSvc,
		Logger:   logger,
		Validate: validate,
		Location: conf.Location(),
	})
	env.signer = checkin.NewSigner(conf.CheckIn.Secret, conf.AppName, conf.AppScheme)
	ciSvc := checkin.NewServiceMock(
		db, repos.Events, mbrSvc, env.signer, notifSvc, logger,
		checkin.Options{
			TokenTTL:    conf.CheckIn.TokenTTL,
			EarlyWindow: conf.CheckIn.EarlyWindow,
			GracePeriod: conf.CheckIn.GracePeriod,
		},
		func() time.Time { return env.now },
	)

	// set up server
	env.app = NewServer(ServerDeps{
		Conf:            conf,
		Logger:          logger,
		CheckInSvc:      ciSvc,
		MemberSvc:       mbrSvc,
		NotificationSvc: notifSvc,
		Validate:        validate,
		Translator:      translator,
	})
	return env
}

func (env *testEnv) serve(req *http.Request, rec *httptest.ResponseRecorder) {
	env.app.ServeHTTP(rec, req)
}

func (env *testEnv) getToken(mbr member.Member, roles ...string) string {
	claims := NewClaims(mbr.ID, mbr.Email, time.Hour, roles...)
	token, err := GenerateToken(claims, env.conf.Server.JWTSecret)
	if err != nil {
		env.t.Fatalf("getToken(): %v", err)
	}
	return token
}

func (env *testEnv) getServiceToken() string {
	claims := NewClaims("", "", time.Hour)
	claims.Role = RoleService
	token, err := GenerateToken(claims, env.conf.Server.JWTSecret)
	if err != nil {
		env.t.Fatalf("getServiceToken(): %v", err)
	}
	return token
}

func (env *testEnv) checkInToken(eventID string, expiresAt time.Time) string {
	tok, err := env.signer.Sign(eventID, expiresAt)
	if err != nil {
		env.t.Fatalf("checkInToken(): %v", err)
	}
	return tok.Token
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj(): %v", err)
	}
	return data
}

func unmarchallObj(t *testing.T, data []byte, obj interface{}) {
	if err := json.Unmarshal(data, obj); err != nil {
		t.Fatalf("unmarchallObj(%s): %v", data, err)
	}
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	assert.Equal(t, tt.wantCode, rec.Code, "body: %s", rec.Body.String())
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func (env *testEnv) run(t *testing.T, tests []httpTest) {
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			env.serve(req, rec)
			checkCodeAndData(t, tt, rec)
		})
	}
}
