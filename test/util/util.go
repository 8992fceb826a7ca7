// Package util provides helpers shared across integration tests.
//
// StartMosquitto and StartRedis launch disposable containers and return the
// address to connect to with a cleanup function. WaitForMetric polls a
// Prometheus endpoint until a metric shows up.
package util

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	MosquittoReadyTimeout = 5 * time.Second
	RedisReadyTimeout     = 5 * time.Second
	MetricTimeout         = 5 * time.Second

	pollInterval = 50 * time.Millisecond
)

// WaitForMetric polls metricsURL until substr appears in the output or ctx
// is done.
func WaitForMetric(ctx context.Context, metricsURL, substr string) error {
	for {
		req, _ := http.NewRequestWithContext(ctx, http.MethodGet, metricsURL, nil)
		resp, err := http.DefaultClient.Do(req)
		if err == nil {
			body, rerr := io.ReadAll(resp.Body)
			_ = resp.Body.Close()
			if rerr != nil {
				return fmt.Errorf("read metrics body: %w", rerr)
			}
			if strings.Contains(string(body), substr) {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("metric %q not found: %w", substr, ctx.Err())
		case <-time.After(pollInterval):
		}
	}
}

// StartMosquitto launches a Mosquitto broker accepting anonymous clients.
func StartMosquitto(ctx context.Context) (string, func(), error) {
	conf := `listener 1883
allow_anonymous true
persistence false
log_dest stdout
`
	dir, err := os.MkdirTemp("", "mosq")
	if err != nil {
		return "", nil, err
	}
	path := filepath.Join(dir, "mosquitto.conf")
	if err := os.WriteFile(path, []byte(conf), 0o644); err != nil {
		_ = os.RemoveAll(dir)
		return "", nil, err
	}

	req := tc.ContainerRequest{
		Image:        "eclipse-mosquitto:2.0",
		ExposedPorts: []string{"1883/tcp"},
		WaitingFor:   wait.ForListeningPort("1883/tcp"),
		Files: []tc.ContainerFile{{
			HostFilePath:      path,
			ContainerFilePath: "/mosquitto/config/mosquitto.conf",
			FileMode:          0o644,
		}},
	}
	endpoint, stop, err := start(ctx, req)
	if err != nil {
		_ = os.RemoveAll(dir)
		return "", nil, err
	}
	cleanup := func() {
		stop()
		_ = os.RemoveAll(dir)
	}
	broker := "tcp://" + endpoint

	waitCtx, cancel := context.WithTimeout(ctx, MosquittoReadyTimeout)
	defer cancel()
	if err := waitForMQTTReady(waitCtx, broker); err != nil {
		cleanup()
		return "", nil, err
	}
	return broker, cleanup, nil
}

// StartRedis launches a Redis server and returns its host:port.
func StartRedis(ctx context.Context) (string, func(), error) {
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}
	addr, cleanup, err := start(ctx, req)
	if err != nil {
		return "", nil, err
	}

	waitCtx, cancel := context.WithTimeout(ctx, RedisReadyTimeout)
	defer cancel()
	rdb := goredis.NewClient(&goredis.Options{Addr: addr})
	defer rdb.Close()
	for rdb.Ping(waitCtx).Err() != nil {
		select {
		case <-waitCtx.Done():
			cleanup()
			return "", nil, fmt.Errorf("redis not ready: %w", waitCtx.Err())
		case <-time.After(pollInterval):
		}
	}
	return addr, cleanup, nil
}

// start runs req and returns the host:port of its first exposed port.
func start(ctx context.Context, req tc.ContainerRequest) (string, func(), error) {
	cont, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	if err != nil {
		return "", nil, err
	}
	cleanup := func() { _ = cont.Terminate(context.Background()) }
	endpoint, err := cont.Endpoint(ctx, "")
	if err != nil {
		cleanup()
		return "", nil, err
	}
	return endpoint, cleanup, nil
}

func waitForMQTTReady(ctx context.Context, broker string) error {
	opts := paho.NewClientOptions().AddBroker(broker).SetClientID("probe")
	for {
		cli := paho.NewClient(opts)
		token := cli.Connect()
		token.Wait()
		if token.Error() == nil {
			cli.Disconnect(100)
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}

// Influx holds the bootstrap settings of a disposable InfluxDB.
type Influx struct {
	URL    string
	Token  string
	Org    string
	Bucket string
}

// StartInflux launches InfluxDB 2 with an initialised org, bucket and
// admin token.
func StartInflux(ctx context.Context) (Influx, func(), error) {
	in := Influx{Token: "test-token", Org: "care", Bucket: "runs"}
	req := tc.ContainerRequest{
		Image:        "influxdb:2.7",
		ExposedPorts: []string{"8086/tcp"},
		Env: map[string]string{
			"DOCKER_INFLUXDB_INIT_MODE":        "setup",
			"DOCKER_INFLUXDB_INIT_USERNAME":    "admin",
			"DOCKER_INFLUXDB_INIT_PASSWORD":    "password123",
			"DOCKER_INFLUXDB_INIT_ORG":         in.Org,
			"DOCKER_INFLUXDB_INIT_BUCKET":      in.Bucket,
			"DOCKER_INFLUXDB_INIT_ADMIN_TOKEN": in.Token,
		},
		WaitingFor: wait.ForHTTP("/health").WithPort("8086/tcp").WithStartupTimeout(60 * time.Second),
	}
	endpoint, cleanup, err := start(ctx, req)
	if err != nil {
		return in, nil, err
	}
	in.URL = "http://" + endpoint
	return in, cleanup, nil
}
