// Package secret resolves environment references and secret references in
// configuration values.
//
// Values are first expanded strictly: ${VAR} must be set, ${VAR:-default}
// falls back, and $$ is a literal dollar. A value that then reads
// "secretref:<provider>:<ref>" is replaced by what the provider returns:
//
//	secretref:env:ADMIN_JWT_SECRET
//	secretref:file:/run/secrets/database_url
//
// References may also appear inline, e.g. "Bearer secretref:env:TOKEN".
package secret
