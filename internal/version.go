package internal

// Version is the application version shown by --version and in the GUI title
const Version = "0.4.1"
