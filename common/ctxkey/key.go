package ctxkey

import "github.com/gin-gonic/gin"

const (
	// RequestId is a per-request unique identifier (also echoed as a response header).
	// Set in: middleware.RequestId.
	// Read in: controllers and the relay path for logging and response-id fallbacks.
	// Note: the literal value doubles as the header name.
	RequestId = "X-Request-Id"

	// Principal holds the flattened *model.Principal built for the authenticated API key.
	// Set in: middleware.TokenAuth after resolving the user's roles, quotas, and models.
	// Read in: controller/relay to look up the requested model label and tag list.
	// Invariant: the snapshot is immutable; admin edits never mutate an in-flight view.
	Principal = "principal"

	// RelayMode records which endpoint family the request targets (chat, embeddings, ...).
	// Set in: controller/relay from the request path.
	// Read in: payload decoding and error labeling.
	RelayMode = "relay_mode"

	// RequestModel is the model label exactly as the client sent it.
	// Set in: controller/relay after decoding the body.
	// Invariant: never mutate this value; response rewriting must restore it verbatim.
	RequestModel = "request_model"

	// KeyRequestBody caches the raw request body bytes for reuse (avoid double read).
	// Set in: common.GetRequestBody and common.UnmarshalBodyReusable.
	// Read in: middleware.RelayPanicRecover for crash diagnostics.
	KeyRequestBody = gin.BodyBytesKey

	// AdminUser is the authenticated admin identity for /admin requests.
	// Set in: middleware.AdminAuth (session or bearer branch).
	// Read in: admin controllers for audit logging.
	AdminUser = "admin_user"
)
