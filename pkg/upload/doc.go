// Package upload stages profile images selected on a page.
//
// The WebSocket carries events, not file bodies, so the browser posts the
// selected file over plain HTTP first:
//
//  1. User selects a file in <input type="file">
//  2. Client POSTs it to /upload
//  3. The handler checks it is an image of at most 2MB, stages it in a
//     Store and returns its temp_id
//  4. Client sends the temp_id in a "select_file" event; the page shows the
//     preview from /upload/{id} and submits the temp_id with the form
//
// DiskStore stages images in a directory. S3Store stages them in a bucket
// and is selected by an s3://bucket/prefix uploads path.
//
// The image type is detected from the file contents with
// http.DetectContentType. The client's Content-Type header is not trusted.
package upload
