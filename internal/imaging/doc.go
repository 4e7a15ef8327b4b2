// Package imaging provides cover-art image processing.
//
// Album art from the catalog arrives in arbitrary sizes and formats. This
// package normalizes it for use as a message thumbnail and as embedded cover
// art:
//
//	svc := imaging.NewService()
//	thumb, err := svc.ResizeWithPadding(ctx, artwork, 320, 320)
//
// ResizeWithPadding scales the image to fit the target square and fills the
// remainder with black, so portrait and landscape covers both yield a uniform
// thumbnail. ConvertToJPEG re-encodes any supported format as JPEG.
// Dimensions reports an image's pixel size without a full decode.
package imaging
