package tooluse

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// locationSchema mirrors what an OpenAPI-described endpoint would hand over at runtime.
func locationSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"location": map[string]any{"type": "string"},
			"unit":     map[string]any{"type": "string", "enum": []any{"celsius", "fahrenheit"}},
		},
		"required": []any{"location"},
	}
}

func echoHandler(_ context.Context, argsJSON []byte) ([]byte, error) {
	return argsJSON, nil
}

func TestNewDynamicTool_Forecast(t *testing.T) {
	t.Parallel()
	tool, err := NewDynamicTool("get_forecast", "Forecast from the weather API", locationSchema(), echoHandler)
	require.NoError(t, err)
	assert.Equal(t, "get_forecast", tool.Name())
	assert.Equal(t, "Forecast from the weather API", tool.Description())

	res, err := tool.Execute(context.Background(), []byte(`{"location": "Oslo", "unit": "celsius"}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"location": "Oslo", "unit": "celsius"}`, string(res))

	for _, bad := range []string{`{}`, `{"location": "Oslo", "unit": "kelvin"}`, `{"location": 1}`, `[`} {
		_, err := tool.Execute(context.Background(), []byte(bad))
		assert.True(t, IsClientError(err), bad)
	}
}

func TestNewDynamicTool_ConstructionErrors(t *testing.T) {
	t.Parallel()
	_, err := NewDynamicTool("bad_type", "d", map[string]any{"type": 123}, echoHandler)
	require.Error(t, err)

	_, err = NewDynamicTool("no_schema", "d", nil, echoHandler)
	require.Error(t, err)

	_, err = NewDynamicTool("no_handler", "d", locationSchema(), nil)
	require.ErrorContains(t, err, "handler must not be nil")
}

func TestNewDynamicTool_HandlerErrors(t *testing.T) {
	t.Parallel()
	tool, err := NewDynamicTool("get_forecast", "d", locationSchema(), func(_ context.Context, argsJSON []byte) ([]byte, error) {
		var a struct {
			Location string `json:"location"`
		}
		if err := json.Unmarshal(argsJSON, &a); err != nil {
			return nil, err
		}
		if a.Location == "Atlantis" {
			return nil, &ClientError{Reason: "unknown location"}
		}
		return nil, errors.New("upstream 503")
	})
	require.NoError(t, err)

	_, err = tool.Execute(context.Background(), []byte(`{"location": "Atlantis"}`))
	var ce *ClientError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "unknown location", ce.Reason)

	_, err = tool.Execute(context.Background(), []byte(`{"location": "Oslo"}`))
	assert.True(t, IsSystemError(err))
}

func TestNewDynamicTool_Options(t *testing.T) {
	t.Parallel()
	tool, err := NewDynamicTool("post_report", "d", locationSchema(), echoHandler,
		WithSerial(), WithStrict(), WithTimeout(2*time.Second), WithVersion("v2"), WithDangerous())
	require.NoError(t, err)

	tm, ok := tool.(ToolMetadata)
	require.True(t, ok)
	assert.True(t, tm.IsSerial())
	assert.True(t, tm.IsDangerous())
	assert.Equal(t, 2*time.Second, tm.Timeout())
	assert.Equal(t, "v2", tm.Version())

	obj := findSchemaObject(tool.Parameters())
	require.NotNil(t, obj)
	assert.Equal(t, false, obj["additionalProperties"])
	assert.Len(t, obj["required"], 2)
	_, err = tool.Execute(context.Background(), []byte(`{"location": "Oslo"}`))
	assert.True(t, IsClientError(err), "strict mode requires every property")
}

func TestNewDynamicTool_CallerSchemaIsolated(t *testing.T) {
	t.Parallel()
	nested := map[string]any{
		"type":       "object",
		"$id":        "https://weather.example/coords",
		"id":         "coords",
		"properties": map[string]any{"lat": map[string]any{"type": "number"}},
	}
	schema := locationSchema()
	schema["$id"] = "https://weather.example/forecast"
	schema["properties"].(map[string]any)["coords"] = nested

	tool, err := NewDynamicTool("get_forecast", "d", schema, echoHandler, WithStrict())
	require.NoError(t, err)

	// Strict mode and id stripping touch only the tool's copy.
	assert.Equal(t, []any{"location"}, schema["required"])
	assert.Nil(t, schema["additionalProperties"])
	assert.Equal(t, "https://weather.example/forecast", schema["$id"])
	assert.Equal(t, "coords", nested["id"])
	assert.Nil(t, nested["additionalProperties"])

	// Later changes to the caller's map do not leak into the tool.
	schema["properties"].(map[string]any)["wind"] = map[string]any{"type": "string"}
	props := tool.Parameters()["properties"].(map[string]any)
	assert.NotContains(t, props, "wind")
	assert.Contains(t, props, "coords")
}

func TestRegistry_DynamicSerialTool_ShutdownWhileDraining(t *testing.T) {
	release := make(chan struct{})
	var ran atomic.Int32
	tool, err := NewDynamicTool("post_report", "Submit a weather report", locationSchema(), func(_ context.Context, argsJSON []byte) ([]byte, error) {
		if ran.Add(1) == 1 {
			<-release
		}
		return argsJSON, nil
	}, WithSerial())
	require.NoError(t, err)
	ping, err := NewDynamicTool("ping", "Health check", map[string]any{"type": "object"}, echoHandler)
	require.NoError(t, err)
	reg := NewRegistry(WithDefaultTimeout(time.Minute))
	reg.Register(tool)
	reg.Register(ping)
	q, ok := reg.Queue("post_report")
	require.True(t, ok)
	assert.Equal(t, "post_report", q.Name())

	first := make(chan ToolResult, 1)
	go func() {
		first <- reg.Execute(context.Background(), ToolCall{ID: "r1", ToolName: "post_report", Args: raw(`{"location": "Oslo"}`)})
	}()
	require.Eventually(t, func() bool { return ran.Load() == 1 }, time.Second, time.Millisecond)

	// Two more reports queue up behind the first; their callers give up waiting.
	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	for _, city := range []string{"Bergen", "Tromso"} {
		wg.Go(func() {
			res := reg.Execute(ctx, ToolCall{ID: city, ToolName: "post_report", Args: raw(`{"location": "` + city + `"}`)})
			assert.ErrorIs(t, res.Error, context.Canceled)
		})
	}
	require.Eventually(t, func() bool { return q.Len() == 2 }, time.Second, time.Millisecond)
	cancel()
	wg.Wait()

	shutdown := make(chan error, 1)
	go func() {
		shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
		defer stop()
		shutdown <- reg.Shutdown(shutdownCtx)
	}()
	require.Eventually(t, func() bool {
		return errors.Is(reg.Execute(context.Background(), ToolCall{ID: "ping", ToolName: "ping", Args: raw(`{}`)}).Error, ErrShutdown)
	}, time.Second, time.Millisecond)
	select {
	case err := <-shutdown:
		t.Fatalf("Shutdown returned %v while the queue still held reports", err)
	case <-time.After(20 * time.Millisecond):
	}

	close(release)
	require.NoError(t, (<-first).Error)
	require.NoError(t, <-shutdown)
	assert.Equal(t, int32(3), ran.Load())
	late := reg.Execute(context.Background(), ToolCall{ID: "late", ToolName: "post_report", Args: raw(`{"location": "Oslo"}`)})
	assert.ErrorIs(t, late.Error, ErrShutdown)
	assert.False(t, q.Busy())
	assert.Equal(t, 0, q.Len())
}
