package verify

import (
	"testing"

	"github.com/railwayapp/slipway/internal/manifest"
	"github.com/railwayapp/slipway/internal/nativedeps"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const goodDockerfile = `FROM python:3.11-slim AS builder

RUN apt-get update && apt-get install -y --no-install-recommends \
    build-essential \
    libpq-dev \
    && rm -rf /var/lib/apt/lists/*

WORKDIR /app

COPY requirements.txt ./
RUN pip install --no-cache-dir --prefix=/opt/deps -r requirements.txt

COPY . .

FROM python:3.11-slim AS runtime

RUN apt-get update && apt-get install -y --no-install-recommends \
    libpq5 \
    && rm -rf /var/lib/apt/lists/*
COPY --from=builder /opt/deps /usr/local

WORKDIR /app
COPY --from=builder /app /app

EXPOSE 8000
CMD ["uvicorn", "main:app", "--host", "0.0.0.0", "--port", "8000"]
`

func mustManifest(t *testing.T, content string) *manifest.Manifest {
	t.Helper()
	m, err := manifest.ParseRequirements("requirements.txt", []byte(content))
	require.NoError(t, err)
	return m
}

func findingCodes(findings []Finding) []string {
	var codes []string
	for _, f := range findings {
		codes = append(codes, f.Code)
	}
	return codes
}

func TestVerifyGoodDescriptor(t *testing.T) {
	verifier := NewVerifier(nativedeps.NewRegistry())
	findings, err := verifier.Verify([]byte(goodDockerfile), mustManifest(t, "fastapi==0.104.1\npsycopg2==2.9.9\n"))
	require.NoError(t, err)

	assert.False(t, HasErrors(findings), "unexpected findings: %v", findings)
}

func TestVerifyMissingRuntimeLibrary(t *testing.T) {
	// Runtime stage drops libpq5: the build succeeds, the container dies on
	// import with a link error. This is the primary regression case.
	broken := `FROM python:3.11-slim AS builder
RUN apt-get update && apt-get install -y build-essential libpq-dev
COPY requirements.txt ./
RUN pip install --no-cache-dir --prefix=/opt/deps -r requirements.txt
COPY . .

FROM python:3.11-slim AS runtime
COPY --from=builder /opt/deps /usr/local
COPY --from=builder /app /app
EXPOSE 8000
CMD ["uvicorn", "main:app", "--host", "0.0.0.0", "--port", "8000"]
`
	verifier := NewVerifier(nativedeps.NewRegistry())
	findings, err := verifier.Verify([]byte(broken), mustManifest(t, "psycopg2==2.9.9\n"))
	require.NoError(t, err)

	assert.True(t, HasErrors(findings))
	assert.Contains(t, findingCodes(findings), CodeMissingRuntimeLibrary)
}

func TestVerifyToolchainInRuntime(t *testing.T) {
	polluted := `FROM python:3.11-slim AS builder
RUN pip install --prefix=/opt/deps -r requirements.txt

FROM python:3.11-slim AS runtime
RUN apt-get update && apt-get install -y gcc libpq-dev libpq5
COPY --from=builder /opt/deps /usr/local
EXPOSE 8000
CMD ["uvicorn", "main:app"]
`
	verifier := NewVerifier(nil)
	findings, err := verifier.Verify([]byte(polluted), nil)
	require.NoError(t, err)

	codes := findingCodes(findings)
	assert.Contains(t, codes, CodeToolchainInRuntime)

	// Both gcc and libpq-dev are flagged
	count := 0
	for _, f := range findings {
		if f.Code == CodeToolchainInRuntime {
			count++
		}
	}
	assert.Equal(t, 2, count)
}

func TestVerifySingleStage(t *testing.T) {
	flat := `FROM python:3.11-slim
RUN pip install -r requirements.txt
CMD ["uvicorn", "main:app"]
`
	verifier := NewVerifier(nil)
	findings, err := verifier.Verify([]byte(flat), nil)
	require.NoError(t, err)

	assert.Equal(t, []string{CodeSingleStage}, findingCodes(findings))
	assert.True(t, HasErrors(findings))
}

func TestVerifyStructuralGaps(t *testing.T) {
	gappy := `FROM python:3.11-slim AS builder
RUN pip install --prefix=/opt/deps -r requirements.txt

FROM python:3.11-slim AS runtime
RUN echo hello
`
	verifier := NewVerifier(nil)
	findings, err := verifier.Verify([]byte(gappy), nil)
	require.NoError(t, err)

	codes := findingCodes(findings)
	assert.Contains(t, codes, CodeNoPromotion)
	assert.Contains(t, codes, CodeNoExpose)
	assert.Contains(t, codes, CodeNoStartCommand)
}

func TestVerifyWarnsOnNonASGIStart(t *testing.T) {
	odd := `FROM python:3.11-slim AS builder
RUN pip install --prefix=/opt/deps -r requirements.txt

FROM python:3.11-slim AS runtime
COPY --from=builder /opt/deps /usr/local
EXPOSE 8000
CMD ["python", "server.py"]
`
	verifier := NewVerifier(nil)
	findings, err := verifier.Verify([]byte(odd), nil)
	require.NoError(t, err)

	assert.Contains(t, findingCodes(findings), CodeNotASGIStart)
	assert.False(t, HasErrors(findings))
}

func TestVerifyUnpinnedWarning(t *testing.T) {
	verifier := NewVerifier(nil)
	findings, err := verifier.Verify([]byte(goodDockerfile), mustManifest(t, "psycopg2==2.9.9\nfastapi>=0.100\n"))
	require.NoError(t, err)

	assert.Contains(t, findingCodes(findings), CodeUnpinnedRequirement)
	assert.False(t, HasErrors(findings))
}

func TestASGIStartRecognition(t *testing.T) {
	assert.True(t, asgiStart([]string{"uvicorn", "main:app"}))
	assert.True(t, asgiStart([]string{"python", "-m", "uvicorn", "main:app"}))
	assert.True(t, asgiStart([]string{"gunicorn", "-k", "uvicorn.workers.UvicornWorker", "main:app"}))
	assert.True(t, asgiStart([]string{"hypercorn", "main:app"}))

	assert.False(t, asgiStart([]string{"python", "server.py"}))
	assert.False(t, asgiStart([]string{"gunicorn", "main:app"}))
	assert.False(t, asgiStart(nil))
}
