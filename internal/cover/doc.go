// Package cover stores uploaded book cover images.
//
// A Resolver turns raw image bytes into the reference saved on the
// listing. Two strategies exist:
//   - Inline: a base64 data: URI kept inside the snapshot (default)
//   - Object: an upload to object storage (MinIO or Google Cloud Storage),
//     referenced by public URL
//
// Both sniff the content with mimetype and accept images only.
package cover
