package config

import (
	"context"
	"encoding/base64"
	"log"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"
)

var FirebaseApp *firebase.App

// InitFirebase initializes the Firebase Admin SDK and returns its auth client
func InitFirebase(s FirebaseSettings) *auth.Client {
	ctx := context.Background()
	config := &firebase.Config{ProjectID: s.ProjectID}

	var opts []option.ClientOption
	switch {
	case s.CredentialsBase64 != "":
		log.Printf("Using Firebase credentials from base64 environment variable")
		decoded, err := base64.StdEncoding.DecodeString(s.CredentialsBase64)
		if err != nil {
			log.Fatalf("Error decoding base64 credentials: %v", err)
		}
		opts = append(opts, option.WithCredentialsJSON(decoded))
	case s.CredentialsFile != "":
		log.Printf("Using Firebase credentials file: %s", s.CredentialsFile)
		opts = append(opts, option.WithCredentialsFile(s.CredentialsFile))
	default:
		// ID-token verification only needs the project ID and Google's public keys
		log.Printf("No Firebase credentials configured, token revocation disabled")
	}

	app, err := firebase.NewApp(ctx, config, opts...)
	if err != nil {
		log.Fatalf("error initializing firebase app: %v\n", err)
	}
	FirebaseApp = app

	client, err := app.Auth(ctx)
	if err != nil {
		log.Fatalf("error initializing firebase auth: %v\n", err)
	}
	return client
}
