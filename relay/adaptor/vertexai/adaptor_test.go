package vertexai

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/transkatgirl/generative-model-proxy-server-sub000/model"
)

func TestGetRequestURL(t *testing.T) {
	backend := &model.Backend{
		Project:  "my-project",
		Location: "us-central1",
	}
	require.Equal(t,
		"https://us-central1-aiplatform.googleapis.com/v1beta1/projects/my-project/locations/us-central1/endpoints/openapi/chat/completions",
		GetRequestURL(backend))
}

func TestGetRequestURLGlobal(t *testing.T) {
	backend := &model.Backend{
		Project:  "my-project",
		Location: "global",
	}
	require.Equal(t,
		"https://aiplatform.googleapis.com/v1beta1/projects/my-project/locations/global/endpoints/openapi/chat/completions",
		GetRequestURL(backend))
}
