// Package opfetch calls HTTP APIs through typed operations built from an
// endpoint description: a method, a path template such as "/pets/{petId}" and
// an optional request content type.
//
// A call goes through a fixed pipeline:
//
//   - the payload is split into path parameters, a query string and a body
//     (JSON or multipart/form-data); the caller's payload is never modified
//   - default headers (Content-Type, Accept) are completed
//   - the request runs through the middleware chain, first registered outermost
//   - the transport performs the network call
//   - the response is normalized; statuses outside 200..299 fail with the
//     operation's own error type
//
// Typical usage:
//
//	client := opfetch.New(opfetch.WithBaseURL("https://petstore.example.com"))
//	client.Use(opfetch.BearerToken(token), opfetch.Logging(logger))
//
//	getPet := opfetch.Create[opfetch.Payload, Pet, APIProblem](
//	    client.Path("/pets/{petId}").Method(opfetch.MethodGet))
//
//	pet, err := getPet.Do(ctx, opfetch.Params("petId", 42))
//	if e, ok := getPet.AsError(err); ok {
//	    shape, _ := e.ActualType() // shape.Status, shape.Data (APIProblem)
//	}
//
// Under methods that carry a body (post, put, patch, delete) payload keys that
// are neither path parameters nor listed in Create's query parameters are sent
// in the body.
//
// Bundled middleware is opt-in: BearerToken, BasicAuth, APIKey, RequestID,
// Logging, RateLimit, Deduplicate and CircuitBreakerMiddleware. The library does not
// retry, cache or time out requests on its own; IsTransient helps
// caller-supplied retry middleware decide.
package opfetch
