package handlers

// ShortenRequest is the request for shortening a URL. A missing body or
// longUrl is reported by the validator rather than by schema validation.
type ShortenRequest struct {
	Body struct {
		LongURL string `doc:"The URL to shorten" example:"https://example.com/very/long/path" json:"longUrl,omitempty"`
	} `required:"false"`
}

// ShortenResponse is returned for both new and existing mappings.
type ShortenResponse struct {
	Body struct {
		ShortURL string `doc:"The full short URL"           example:"http://localhost:3005/01HY8X3J5ZQ4B9D2W7K6M1N0PR" json:"shortUrl"`
		Message  string `doc:"What happened"                example:"URL shortened successfully"                    json:"message"`
		Status   string `doc:"Whether the mapping is new" enum:"created,existing" example:"created"               json:"status"`
	}
}

// RedirectRequest is the request for redirecting a short URL.
type RedirectRequest struct {
	ShortCode string `doc:"The short code" example:"01HY8X3J5ZQ4B9D2W7K6M1N0PR" path:"shortCode"`
}

// RedirectResponse sends the client on to the long URL.
type RedirectResponse struct {
	Status   int
	Location string `doc:"The long URL" header:"Location"`
}

// EmptyResponse has no body.
type EmptyResponse struct {
	Status int
}
