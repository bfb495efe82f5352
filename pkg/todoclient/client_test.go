package todoclient_test

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"

	apiHandler "github.com/fastygo/todoboard/api/handler"
	"github.com/fastygo/todoboard/domain"
	"github.com/fastygo/todoboard/internal/infrastructure/monitor"
	"github.com/fastygo/todoboard/internal/router"
	"github.com/fastygo/todoboard/pkg/todoclient"
	"github.com/fastygo/todoboard/repository/memory"
	analyticsUC "github.com/fastygo/todoboard/usecase/analytics"
	taskUC "github.com/fastygo/todoboard/usecase/task"
)

type upStatus struct{}

func (upStatus) GetStatus() monitor.Status { return monitor.Status{Store: true} }

func startServer(t *testing.T) *todoclient.Client {
	t.Helper()
	store := memory.NewStore()
	analytics := analyticsUC.New(memory.NewAnalyticsRepository(store), nil, nil, analyticsUC.Config{}, nil)
	tasks := taskUC.New(memory.NewTaskRepository(store), memory.NewEventRepository(store), nil, analytics, nil)
	r := router.New(router.Handlers{
		Task:      apiHandler.NewTaskHandler(tasks, nil, nil),
		Analytics: apiHandler.NewAnalyticsHandler(analytics, nil, nil),
		Health:    apiHandler.NewHealthHandler(upStatus{}, nil, nil),
	})

	ln := fasthttputil.NewInmemoryListener()
	server := &fasthttp.Server{Handler: r.Handler}
	go func() { _ = server.Serve(ln) }()
	t.Cleanup(func() {
		_ = server.Shutdown()
		_ = ln.Close()
	})

	httpClient := &fasthttp.Client{
		Dial: func(string) (net.Conn, error) { return ln.Dial() },
	}
	return todoclient.New("http://todoboard.test/", todoclient.WithDoer(httpClient), todoclient.WithTimeout(2*time.Second))
}

func TestClientRoundTrip(t *testing.T) {
	client := startServer(t)
	ctx := context.Background()

	created, err := client.Create(ctx, todoclient.CreateInput{
		Title:    "call the bank",
		Deadline: time.Now().UTC().Add(-time.Minute),
		Priority: domain.PriorityHigh,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailure, created.Status)

	future := time.Now().UTC().Add(24 * time.Hour)
	reopened, err := client.Patch(ctx, created.ID, todoclient.PatchInput{Deadline: &future})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusOngoing, reopened.Status)

	done, err := client.MarkComplete(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSuccess, done.Status)

	fetched, err := client.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSuccess, fetched.Status)

	stats, err := client.CompletionStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.StatusCount{{Status: domain.StatusSuccess, Count: 1}}, stats.StatusDistribution)

	heat, err := client.ActivityHeatmap(ctx)
	require.NoError(t, err)
	assert.False(t, heat.Synthetic)

	require.NoError(t, client.Delete(ctx, created.ID))
	_, err = client.Get(ctx, created.ID)
	var apiErr *todoclient.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.NotFound())
	assert.Equal(t, string(domain.ErrCodeNotFound), apiErr.Code)
}

func TestClientListingShapes(t *testing.T) {
	client := startServer(t)
	ctx := context.Background()
	for _, title := range []string{"a", "b", "c"} {
		_, err := client.Create(ctx, todoclient.CreateInput{Title: title, Deadline: time.Now().Add(time.Hour)})
		require.NoError(t, err)
	}

	flat, err := client.ListTasks(ctx, todoclient.ListOptions{NoPage: true})
	require.NoError(t, err)
	assert.Equal(t, todoclient.KindFlat, flat.Kind)
	assert.Len(t, flat.Tasks, 3)

	paged, err := client.ListTasks(ctx, todoclient.ListOptions{PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, todoclient.KindPaged, paged.Kind)
	assert.Equal(t, 3, paged.Count)
	assert.True(t, paged.HasNext())

	all, err := client.ListAll(ctx, domain.StatusOngoing)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestClientValidationError(t *testing.T) {
	client := startServer(t)
	_, err := client.Create(context.Background(), todoclient.CreateInput{Title: "", Deadline: time.Now()})
	var apiErr *todoclient.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, fasthttp.StatusBadRequest, apiErr.StatusCode)
}

func TestDecodeListing(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		kind    todoclient.ListingKind
		count   int
		next    string
		wantErr bool
	}{
		{name: "flat", raw: `[{"id":"1"},{"id":"2"}]`, kind: todoclient.KindFlat, count: 2},
		{name: "empty flat", raw: ` [] `, kind: todoclient.KindFlat, count: 0},
		{name: "paged", raw: `{"count":7,"next":"http://x/?page=2","previous":null,"results":[{"id":"1"}]}`, kind: todoclient.KindPaged, count: 7, next: "http://x/?page=2"},
		{name: "empty body", raw: ``, wantErr: true},
		{name: "scalar", raw: `42`, wantErr: true},
		{name: "broken", raw: `[{"id":`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			listing, err := todoclient.DecodeListing([]byte(tt.raw))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.kind, listing.Kind)
			assert.Equal(t, tt.count, listing.Count)
			assert.Equal(t, tt.next, listing.Next)
			assert.NotNil(t, listing.Tasks)
		})
	}
}
