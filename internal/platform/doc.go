// Package platform implements the authenticated client for the MilCubes
// project-authoring backend.
//
// A [Session] is obtained from [Login] with either [PasswordLogin] or
// [CookieImport] credentials and is then passed into every remote operation.
// [Project] models one remote authoring project; [ProjectCollection] is an
// indexed snapshot of a listing page. File uploads go through
// [Session.UploadFile] and return an [UploadResult].
//
// The remote API is not a documented contract. Response shapes are pinned to
// the live platform version and decoded defensively; a missing envelope or
// token surfaces as [shared.ErrProtocolChanged] rather than a panic or a
// silent zero value.
//
// A Session is not safe for concurrent mutation from multiple goroutines.
// Callers that need parallel operations should create one Session each.
package platform
