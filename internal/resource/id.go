package resource

import "strings"

// Resource kinds with a locally runnable supervised predictor.
const (
	KindModel              = "model"
	KindEnsemble           = "ensemble"
	KindLogisticRegression = "logisticregression"
	KindDeepnet            = "deepnet"
	KindLinearRegression   = "linearregression"
	KindFusion             = "fusion"
)

const sharedPrefix = "shared/"

var supervisedKinds = map[string]struct{}{
	KindModel:              {},
	KindEnsemble:           {},
	KindLogisticRegression: {},
	KindDeepnet:            {},
	KindLinearRegression:   {},
	KindFusion:             {},
}

// Kind extracts the resource type from an identifier such as
// "model/5143a51a37203f2cf7000972" or "shared/fusion/abc". Returns ""
// when the identifier carries no type segment.
func Kind(id string) string {
	id = strings.TrimPrefix(strings.TrimSpace(id), sharedPrefix)
	kind, rest, ok := strings.Cut(id, "/")
	if !ok || kind == "" || rest == "" {
		return ""
	}
	return kind
}

// IsSupervised reports whether kind names a locally supported supervised
// predictor.
func IsSupervised(kind string) bool {
	_, ok := supervisedKinds[kind]
	return ok
}

// IsShared reports whether the identifier references a shared resource.
func IsShared(id string) bool {
	return strings.HasPrefix(strings.TrimSpace(id), sharedPrefix)
}

// SharedRef strips the shared prefix, yielding the reference used in the
// provenance chain when downloading children of a shared resource.
func SharedRef(id string) string {
	return strings.TrimPrefix(strings.TrimSpace(id), sharedPrefix)
}

// SupervisedKinds returns the supported kinds in declaration order.
func SupervisedKinds() []string {
	return []string{
		KindModel, KindEnsemble, KindLogisticRegression,
		KindDeepnet, KindLinearRegression, KindFusion,
	}
}
