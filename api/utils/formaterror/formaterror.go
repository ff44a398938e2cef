package formaterror

import "strings"

// FormatError maps driver-level constraint errors to field-level messages so
// handlers can re-present them alongside validation errors.
func FormatError(err string) map[string]string {
	errorMessages := make(map[string]string)

	lowered := strings.ToLower(err)

	if strings.Contains(lowered, "username") {
		errorMessages["Taken_username"] = "Username Already Taken"
	}
	if strings.Contains(lowered, "email") {
		errorMessages["Taken_email"] = "Email Already Taken"
	}
	if strings.Contains(lowered, "slug") {
		errorMessages["Taken_slug"] = "Slug Already Taken"
	}
	if strings.Contains(lowered, "hashedpassword") || strings.Contains(lowered, "password") {
		errorMessages["Incorrect_password"] = "Incorrect Password"
	}
	if strings.Contains(lowered, "record not found") {
		errorMessages["No_record"] = "No Record Found"
	}

	if len(errorMessages) > 0 {
		return errorMessages
	}
	return map[string]string{"Incorrect_details": "Incorrect Details"}
}
