package pubsub

import (
	"context"
	"testing"

	"github.com/angelmondragon/folio-storefront/pkg/config"
	"github.com/stretchr/testify/assert"
)

func TestResourceName(t *testing.T) {
	assert.Equal(t, "projects/folio/topics/orders", resourceName("folio", "topics", "orders"))
	assert.Equal(t, "projects/other/topics/orders", resourceName("folio", "topics", "projects/other/topics/orders"))
	assert.Equal(t, "projects/folio/subscriptions/orders-inbox", resourceName("folio", "subscriptions", "orders-inbox"))
	assert.Equal(t, "projects/folio/subscriptions/projects/x/topics/y", resourceName("folio", "subscriptions", "projects/x/topics/y"))
	assert.Empty(t, resourceName("folio", "topics", "  "))
	assert.Empty(t, resourceName("", "topics", "orders"))
}

func TestTopicNamesDeduplicates(t *testing.T) {
	names := topicNames(config.PubSubConfig{OrdersTopic: "events", ContactTopic: " events "})
	assert.Equal(t, []string{"events"}, names)
	assert.Empty(t, topicNames(config.PubSubConfig{}))
}

func TestClientOptions(t *testing.T) {
	assert.Nil(t, clientOptions(config.GCPConfig{}))
	assert.Len(t, clientOptions(config.GCPConfig{CredentialsJSON: `{"type":"service_account"}`}), 1)
	assert.Len(t, clientOptions(config.GCPConfig{ApplicationCredentials: "/etc/gcp.json"}), 1)
}

func TestNewClientRequiresProject(t *testing.T) {
	_, err := NewClient(context.Background(), config.GCPConfig{}, config.PubSubConfig{OrdersTopic: "x"}, nil)
	assert.ErrorIs(t, err, errProjectIDRequired)
}

func TestNilClientIsSafe(t *testing.T) {
	var c *Client
	assert.Nil(t, c.Publisher("orders"))
	assert.Nil(t, c.Subscriber("orders-inbox"))
	assert.Error(t, c.Ping(context.Background()))
	assert.NoError(t, c.Close())
}
