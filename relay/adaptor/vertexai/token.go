package vertexai

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	credentials "cloud.google.com/go/iam/credentials/apiv1"
	"cloud.google.com/go/iam/credentials/apiv1/credentialspb"
	"github.com/Laisky/errors/v2"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"google.golang.org/api/option"
)

const defaultScope = "https://www.googleapis.com/auth/cloud-platform"

// Access tokens live for an hour; refresh a little early so an in-flight
// request never carries one about to expire.
var tokenCache = cache.New(50*time.Minute, 55*time.Minute)

type serviceAccount struct {
	ClientEmail string `json:"client_email"`
}

// getToken exchanges a model's service-account key for a short-lived access
// token, cached per model.
func getToken(ctx context.Context, modelID uuid.UUID, credentialsJSON string) (string, error) {
	cacheKey := fmt.Sprintf("vertexai-token-%s", modelID)
	if token, found := tokenCache.Get(cacheKey); found {
		return token.(string), nil
	}

	account := &serviceAccount{}
	if err := json.Unmarshal([]byte(credentialsJSON), account); err != nil {
		return "", errors.Wrap(err, "parse service account credentials")
	}

	iamClient, err := credentials.NewIamCredentialsClient(ctx,
		option.WithCredentialsJSON([]byte(credentialsJSON)))
	if err != nil {
		return "", errors.Wrap(err, "create iam credentials client")
	}
	defer func() { _ = iamClient.Close() }()

	resp, err := iamClient.GenerateAccessToken(ctx, &credentialspb.GenerateAccessTokenRequest{
		Name:  fmt.Sprintf("projects/-/serviceAccounts/%s", account.ClientEmail),
		Scope: []string{defaultScope},
	})
	if err != nil {
		return "", errors.Wrap(err, "generate access token")
	}

	_ = tokenCache.Add(cacheKey, resp.AccessToken, cache.DefaultExpiration)
	return resp.AccessToken, nil
}
