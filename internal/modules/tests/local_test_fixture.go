package tests

import (
	"context"
	"os"

	"github.com/google/uuid"
	tc "github.com/testcontainers/testcontainers-go/modules/compose"
	"github.com/testcontainers/testcontainers-go/wait"
)

// ServiceWait pairs a service's exposed port with the strategy that
// decides when the service is ready.
type ServiceWait struct {
	Port     int
	Strategy wait.Strategy
}

type LocalTestFixture struct {
	compose tc.DockerCompose
}

func NewLocalTestFixture(dockerComposePath string, waits map[string]ServiceWait) (LocalTestFixture, error) {
	compose := tc.NewLocalDockerCompose([]string{dockerComposePath}, uuid.NewString())

	var stack tc.DockerCompose = compose
	for serviceName, w := range waits {
		stack = stack.WithExposedService(serviceName, w.Port, w.Strategy)
	}

	return LocalTestFixture{compose: stack}, nil
}

func (f *LocalTestFixture) Start(ctx context.Context) error {
	if skip := os.Getenv("SKIP_INFRASTRUCTURE"); skip == "true" {
		return nil
	}

	execErr := f.compose.WithCommand([]string{"up", "-d"}).Invoke()
	return execErr.Error
}

func (f *LocalTestFixture) Stop(ctx context.Context) error {
	if skip := os.Getenv("SKIP_INFRASTRUCTURE"); skip == "true" {
		return nil
	}

	execErr := f.compose.Down()
	return execErr.Error
}
