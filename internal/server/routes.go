// Package server contain implementation of go-gin-server and each route handlers
package server

import (
	"net/http"
	"os"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	// Load env
	_ "github.com/joho/godotenv/autoload"

	// Init swagger doc
	_ "PeopleFlow-backend/docs"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"PeopleFlow-backend/internal/auth"
	"PeopleFlow-backend/internal/controller/candidate"
	"PeopleFlow-backend/internal/controller/employee"
	"PeopleFlow-backend/internal/controller/file"
	"PeopleFlow-backend/internal/controller/payroll"
	"PeopleFlow-backend/internal/middleware"
	"PeopleFlow-backend/internal/model"
	enginepayroll "PeopleFlow-backend/internal/payroll"
)

// RegisterRoutes will register each http endpoint routes to bound Server instance
func (s *MyServer) RegisterRoutes(processor enginepayroll.PaymentProcessor) http.Handler {
	r := gin.Default()

	allowOrginsStr := os.Getenv("ALLOW_ORIGIN")
	allowOrgins := strings.Split(allowOrginsStr, ",")

	googleOauth := &oauth2.Config{
		ClientID:     os.Getenv("STAFF_GOOGLE_AUTH_CLIENT"),
		ClientSecret: os.Getenv("STAFF_GOOGLE_AUTH_SECRET"),
		Scopes: []string{
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
			"https://www.googleapis.com/auth/userinfo.openid",
		},
		Endpoint:    google.Endpoint,
		RedirectURL: os.Getenv("OAUTH_REDIRECT_URL"),
	}

	gAuth := auth.NewOauthLoginHandler(s.DB, googleOauth, "https://www.googleapis.com/oauth2/v2/userinfo")
	lAuth := auth.NewLocalAuthHandler(s.DB)
	blacklist := auth.NewInMemoryBlacklistStore()
	logout := auth.NewLogoutController(blacklist)

	candidateController := candidate.NewCandidateController(s.DB, s.Storage)
	payrollController := payroll.NewPayrollController(s.DB, processor)
	employeeController := employee.NewEmployeeController(s.DB)
	fileController := file.NewFileController(s.DB, s.Storage)

	r.Use(cors.New(cors.Config{
		AllowOrigins:     allowOrgins, // Add your frontend URL
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true, // Enable cookies/auth
	}))
	r.Use(middleware.SafeHeader())
	r.Use(middleware.EnvRateLimitMiddleware())

	r.GET("/", s.HelloWorldHandler)
	r.GET("/health", s.healthHandler)
	v1 := r.Group("/api/v1")
	{
		authRoute := v1.Group("/auth")
		{
			authRoute.POST("google/staff", gAuth.StaffGoogleLoginHandler)
			authRoute.GET("google/callback", gAuth.Callback)

			authRoute.POST("login", lAuth.LocalLoginHandler)
			authRoute.POST("register", lAuth.LocalRegisterHandler)
			authRoute.POST("logout", middleware.RequireAuth(s.DB), logout.LogoutHandler)
		}

		// Public application intake
		v1.POST("/candidate", candidateController.SubmitApplication)

		needAuth := v1.Group("")
		{
			needAuth.Use(middleware.JwtBlacklistCheck(blacklist), middleware.RequireAuth(s.DB))

			fileRoute := needAuth.Group("/file")
			{
				fileRoute.GET("", middleware.CheckRole(model.RoleHR, model.RoleAdmin), fileController.ListStoredObjects)
				fileRoute.GET(":id", fileController.GetFile)
			}

			employeeRoute := needAuth.Group("/employee")
			{
				employeeRoute.GET("me", employeeController.MyProfile)
				employeeRoute.PATCH("me", employeeController.UpdateMyProfile)
				employeeRoute.POST("me/photo", middleware.SizeLimit(10<<20), employeeController.UploadPhoto)
				employeeRoute.GET("department", employeeController.ListDepartments)
				employeeRoute.POST("department", middleware.CheckRole(model.RoleAdmin), employeeController.CreateDepartment)
				employeeRoute.POST("review", middleware.CheckRole(model.RoleHR, model.RoleAdmin), employeeController.CreateReview)
				employeeRoute.GET(":id/review", middleware.CheckRole(model.RoleHR, model.RoleAdmin), employeeController.ListReviews)
			}

			needHR := needAuth.Group("")
			{
				needHR.Use(middleware.CheckRole(model.RoleHR, model.RoleAdmin))

				candidateRoute := needHR.Group("/candidate")
				{
					candidateRoute.GET("", candidateController.ListCandidates)
					candidateRoute.GET(":id", candidateController.GetCandidate)
					candidateRoute.POST(":id/begin-validation", candidateController.BeginValidation)
					candidateRoute.POST(":id/accept", candidateController.Accept)
					candidateRoute.POST(":id/reject", candidateController.Reject)
					candidateRoute.POST(":id/document/:kind", middleware.SizeLimit(10<<20), candidateController.UploadDocument)
				}

				payrollRoute := needHR.Group("/payroll")
				{
					payrollRoute.GET("", payrollController.ListPayslips)
					payrollRoute.POST("generate", payrollController.GeneratePayslips)
					payrollRoute.POST("issue", payrollController.IssuePayslips)
					payrollRoute.POST("settle", payrollController.SettleBatch)
					payrollRoute.GET("batches", payrollController.ListBatches)
				}
			}
		}
	}

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}

// HelloWorldHandler handle request by return message "Hello World"
func (s *MyServer) HelloWorldHandler(c *gin.Context) {
	resp := make(map[string]string)
	resp["message"] = "Hello World"

	c.JSON(http.StatusOK, resp)
}

func (s *MyServer) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, s.DB.Health())
}
