/*
Package authsdk holds the wire types of the authentication API and a Go client
for it.

# Overview

The server encodes every response with the types in this package, so a Go
consumer can decode them without re-declaring anything. Client wraps the
HTTP surface and keeps the session cookie in a cookie jar, which means one
Client behaves like one browser.

	client, err := authsdk.NewClient("https://auth.example.com")
	if err != nil {
		return err
	}

	login, err := client.Login(ctx, authsdk.LoginRequest{
		Email:    "alice@example.com",
		Password: "S3cret!pass",
	})
	if err != nil {
		return err
	}
	fmt.Println("logged in as", login.User.Name)

Directory accounts log in with a uid or email in Username:

	login, err := client.Login(ctx, authsdk.LoginRequest{
		Username:   "john.doe",
		Password:   "password123",
		AuthMethod: authsdk.AuthMethodLDAP,
	})

# Errors

Every non-2xx response is returned as *APIError. It carries the HTTP status,
the server message, any validation messages and, for 423 and 429 responses,
the retry hints:

	_, err := client.Login(ctx, req)
	var apiErr *authsdk.APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests {
		time.Sleep(time.Duration(apiErr.RetryAfter) * time.Second)
	}

# Admin

Admin calls require the client to be logged in as an admin:

	page, err := client.ListUsers(ctx, authsdk.ListUsersParams{Search: "smith", Limit: 20})
	stats, err := client.Stats(ctx)

# Thread Safety

Client is safe for concurrent use; the cookie jar is.
*/
package authsdk
