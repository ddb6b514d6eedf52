// Package i18n holds the embedded message catalogs of the user interface
// and the localizer that renders them.
//
// The supported languages are the ones the tool has always shipped with:
// English, Spanish, French, Italian and Brazilian Portuguese. Codes use the
// underscore form (pt_BR) that is stored in the configuration file.
package i18n
