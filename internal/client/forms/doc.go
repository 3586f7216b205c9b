// Package forms validates sign-in and registration input before it reaches
// the session controller.
//
// Validation runs client side only so that obviously bad input (empty
// password, mismatched confirmation, missing CAPTCHA token) never costs a
// round trip. The server remains the authority; its 422 field errors come
// back through gateway.HTTPError.
package forms
