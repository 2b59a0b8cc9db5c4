//go:build integration

package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/kilianp07/railsim/core/model"
	coremqtt "github.com/kilianp07/railsim/core/mqtt"
)

// TestPublisherMosquitto publishes a schedule to a real broker and reads it
// back with a plain subscriber.
func TestPublisherMosquitto(t *testing.T) {
	ctx := context.Background()
	req := tc.ContainerRequest{
		Image:        "eclipse-mosquitto:1.6",
		ExposedPorts: []string{"1883/tcp"},
		WaitingFor:   wait.ForListeningPort("1883/tcp"),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("failed to start container: %v", err)
	}
	defer func() {
		if err := container.Terminate(ctx); err != nil {
			t.Fatalf("failed to terminate container: %v", err)
		}
	}()

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("failed to get container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "1883")
	if err != nil {
		t.Fatalf("failed to get mapped port: %v", err)
	}
	broker := fmt.Sprintf("tcp://%s:%s", host, port.Port())

	sub := paho.NewClient(paho.NewClientOptions().AddBroker(broker).SetClientID("it-sub"))
	if tok := sub.Connect(); tok.Wait() && tok.Error() != nil {
		t.Fatalf("subscriber connect: %v", tok.Error())
	}
	defer sub.Disconnect(250)
	msgCh := make(chan []byte, 1)
	if tok := sub.Subscribe("it/trains/+/schedule", 1, func(_ paho.Client, m paho.Message) {
		msgCh <- m.Payload()
	}); tok.Wait() && tok.Error() != nil {
		t.Fatalf("subscribe: %v", tok.Error())
	}

	pub, err := NewPahoPublisher(Config{Broker: broker, ClientID: "it-pub", TopicPrefix: "it", QoS: map[string]byte{"schedule": 1}}, "run")
	if err != nil {
		t.Fatalf("publisher: %v", err)
	}
	defer pub.Disconnect()

	evs := []model.ScheduleEvent{{TrainID: 1, Source: "A", Target: "B", StartTime: 0, EndTime: 60}}
	if err := pub.PublishSchedule(1, evs); err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case data := <-msgCh:
		var env coremqtt.Envelope[[]model.ScheduleEvent]
		if err := json.Unmarshal(data, &env); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if env.TrainID != 1 || len(env.Payload) != 1 || env.Payload[0].EndTime != 60 {
			t.Fatalf("unexpected envelope %+v", env)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for schedule")
	}
}
