package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// Credentials is the JSON shape of the database secret.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// retrieveCredentials prefers explicit env credentials and falls back to Secrets Manager.
func retrieveCredentials(ctx context.Context, username, password, secretID string) (string, string, error) {
	if username != "" && password != "" {
		return username, password, nil
	}
	if secretID == "" {
		return "", "", fmt.Errorf("db: no credentials and DB_SECRET_ID is empty")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return "", "", fmt.Errorf("db: load aws config: %w", err)
	}
	client := secretsmanager.NewFromConfig(awsCfg)

	result, err := client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId:     aws.String(secretID),
		VersionStage: aws.String("AWSCURRENT"),
	})
	if err != nil {
		return "", "", fmt.Errorf("db: read secret %s: %w", secretID, err)
	}
	if result.SecretString == nil {
		return "", "", fmt.Errorf("db: secret %s has no string value", secretID)
	}

	var secret Credentials
	if err := json.Unmarshal([]byte(*result.SecretString), &secret); err != nil {
		return "", "", fmt.Errorf("db: decode secret %s: %w", secretID, err)
	}
	return secret.Username, secret.Password, nil
}
