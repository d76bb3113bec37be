package domain

// Stage es una etapa del pipeline de análisis. Conjunto fijo: los callers
// (UI, logs) hacen match sobre estos valores.
type Stage string

const (
	StageIdle       Stage = "idle"
	StageConnecting Stage = "connecting"
	StageFetching   Stage = "fetching race data"
	StageExtracting Stage = "extracting statistics"
	StageScoring    Stage = "calculating scores"
	StageRanking    Stage = "ranking competitors"
	StageInsights   Stage = "generating insights"
	StageComplete   Stage = "complete"
)

// ProgressEvent notifica el avance del pipeline. Se emite, no se almacena.
type ProgressEvent struct {
	Stage   Stage
	Percent int    // [0,100]
	Detail  string // texto para mostrar al usuario
}

// ProgressFunc recibe eventos de progreso. Puede ser nil (sin reporting).
type ProgressFunc func(ProgressEvent)
