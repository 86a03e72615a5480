package types

// ManifestKind identifies which manifest format declared the dependencies
type ManifestKind string

const (
	ManifestRequirements ManifestKind = "requirements"
	ManifestPyProject    ManifestKind = "pyproject"
)

// ConfigRef points at a source file that contributed to the app spec
type ConfigRef struct {
	Type string `json:"type"` // "requirements", "pyproject", "procfile", "docker-compose", ...
	Path string `json:"path"`
}

// AppSpec is the triangulated description of the application the pipeline
// will containerize. Each field may come from a different signal; conflicts
// are resolved by signal confidence.
type AppSpec struct {
	Name string `json:"name"`

	// Root is the application source tree root
	Root string `json:"root"`

	ManifestPath string       `json:"manifestPath,omitempty"`
	ManifestKind ManifestKind `json:"manifestKind,omitempty"`

	// AppImport is the ASGI application import path, e.g. "main:app"
	AppImport string `json:"appImport,omitempty"`

	// Framework is the detected ASGI framework, e.g. "fastapi"
	Framework string `json:"framework,omitempty"`

	Port int `json:"port,omitempty"`

	// StartCommand overrides the planner's default server invocation
	StartCommand []string `json:"startCommand,omitempty"`

	// Image is the image name/tag the plan should produce
	Image string `json:"image,omitempty"`

	// PythonVersion pins the interpreter for the base image, e.g. "3.11"
	PythonVersion string `json:"pythonVersion,omitempty"`

	// DockerfilePath is an existing descriptor found in the tree, if any
	DockerfilePath string `json:"dockerfilePath,omitempty"`

	// SourceFingerprint is a digest of the source tree that feeds the
	// copy-source artifact; the pipeline fills it in after discovery
	SourceFingerprint string `json:"sourceFingerprint,omitempty"`

	// EnvFiles are dotenv files discovered next to the app
	EnvFiles []string `json:"envFiles,omitempty"`

	Configs []ConfigRef `json:"configs,omitempty"`
}

// Fragment is a partial AppSpec produced by a single signal
type Fragment struct {
	Spec       AppSpec
	Confidence int
}
